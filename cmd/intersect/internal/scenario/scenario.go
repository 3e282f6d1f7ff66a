// Package scenario loads and replays observer scenarios described in YAML.
//
// A scenario declares named observers and a list of steps that mount,
// update and unmount them and deliver simulated intersection changes:
//
//	observers:
//	  - name: hero
//	    element: hero-1
//	    threshold: [0, 0.5, 1]
//	  - name: footer
//	    rootMargin: 10px
//	    onlyOnce: true
//	steps:
//	  - mount: [hero, footer]
//	  - dispatch:
//	      - {observer: hero, ratio: 0.5}
//	      - {observer: footer, ratio: 1}
//	  - update: {observer: hero, element: hero-2, rootMargin: 5%}
//	  - unmount: [footer]
//	  - prune: true
package scenario

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/intersect/pkg/intersection"
	"github.com/go-drift/intersect/pkg/observer"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name      string     `yaml:"name,omitempty"`
	Observers []Observer `yaml:"observers"`
	Steps     []Step     `yaml:"steps"`
}

// Observer declares one observer tree: an Observer widget wrapping a box
// whose ID is Element.
type Observer struct {
	Name       string    `yaml:"name"`
	Element    string    `yaml:"element,omitempty"`
	Root       string    `yaml:"root,omitempty"`
	RootMargin string    `yaml:"rootMargin,omitempty"`
	Threshold  []float64 `yaml:"threshold,omitempty"`
	Disabled   bool      `yaml:"disabled,omitempty"`
	OnlyOnce   bool      `yaml:"onlyOnce,omitempty"`
}

// Step is one scenario step. Exactly one field is set.
type Step struct {
	Mount    []string   `yaml:"mount,omitempty"`
	Update   *Update    `yaml:"update,omitempty"`
	Unmount  []string   `yaml:"unmount,omitempty"`
	Dispatch []Delivery `yaml:"dispatch,omitempty"`
	Prune    bool       `yaml:"prune,omitempty"`
}

// Update changes the props of a mounted observer. Unset fields keep their
// current value.
type Update struct {
	Observer   string    `yaml:"observer"`
	Element    *string   `yaml:"element,omitempty"`
	Root       *string   `yaml:"root,omitempty"`
	RootMargin *string   `yaml:"rootMargin,omitempty"`
	Threshold  []float64 `yaml:"threshold,omitempty"`
	Disabled   *bool     `yaml:"disabled,omitempty"`
	OnlyOnce   *bool     `yaml:"onlyOnce,omitempty"`
}

// Delivery is one simulated change entry for the current element of an
// observer.
type Delivery struct {
	Observer string  `yaml:"observer"`
	Ratio    float64 `yaml:"ratio"`
	// Intersecting overrides the indicator, which defaults to Ratio > 0.
	Intersecting *bool `yaml:"intersecting,omitempty"`
	// Bare omits the intersecting indicator entirely.
	Bare bool `yaml:"bare,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return &s, nil
}

// Props returns the subscription props declared by o.
func (o Observer) Props() intersection.Props {
	p := intersection.Props{
		RootMargin: o.RootMargin,
		Threshold:  o.Threshold,
		Disabled:   o.Disabled,
		OnlyOnce:   o.OnlyOnce,
	}
	if o.Root != "" {
		p.Root = o.Root
	}
	return p
}

// Apply returns o with the fields set in u.
func (u Update) Apply(o Observer) Observer {
	if u.Element != nil {
		o.Element = *u.Element
	}
	if u.Root != nil {
		o.Root = *u.Root
	}
	if u.RootMargin != nil {
		o.RootMargin = *u.RootMargin
	}
	if u.Threshold != nil {
		o.Threshold = u.Threshold
	}
	if u.Disabled != nil {
		o.Disabled = *u.Disabled
	}
	if u.OnlyOnce != nil {
		o.OnlyOnce = *u.OnlyOnce
	}
	return o
}

// Entry builds the change entry of d for target.
func (d Delivery) Entry(target observer.Element) observer.Entry {
	e := observer.Entry{
		Target:            target,
		IntersectionRatio: d.Ratio,
	}
	switch {
	case d.Bare:
	case d.Intersecting != nil:
		e.IsIntersecting = observer.Bool(*d.Intersecting)
	default:
		e.IsIntersecting = observer.Bool(d.Ratio > 0)
	}
	return e
}

// Validate checks every options block and every observer reference without
// running the scenario. All problems are returned, combined.
func (s *Scenario) Validate() error {
	var err error
	declared := make(map[string]Observer, len(s.Observers))
	for i, o := range s.Observers {
		switch {
		case strings.TrimSpace(o.Name) == "":
			err = multierr.Append(err, fmt.Errorf("observers[%d]: name is required", i))
			continue
		case hasKey(declared, o.Name):
			err = multierr.Append(err, fmt.Errorf("observers[%d]: duplicate name %q", i, o.Name))
			continue
		}
		declared[o.Name] = o
		if verr := o.Props().Options().Validate(); verr != nil {
			err = multierr.Append(err, fmt.Errorf("observer %q: %w", o.Name, verr))
		}
	}

	ref := func(step int, name string) {
		if !hasKey(declared, name) {
			err = multierr.Append(err, fmt.Errorf("steps[%d]: unknown observer %q", step, name))
		}
	}
	for i, step := range s.Steps {
		if n := step.kinds(); n != 1 {
			err = multierr.Append(err, fmt.Errorf("steps[%d]: expected exactly one action, got %d", i, n))
		}
		for _, name := range step.Mount {
			ref(i, name)
		}
		for _, name := range step.Unmount {
			ref(i, name)
		}
		for _, d := range step.Dispatch {
			ref(i, d.Observer)
			if d.Ratio < 0 || d.Ratio > 1 {
				err = multierr.Append(err, fmt.Errorf("steps[%d]: ratio %v out of range", i, d.Ratio))
			}
		}
		if u := step.Update; u != nil {
			o, ok := declared[u.Observer]
			if !ok {
				ref(i, u.Observer)
				continue
			}
			if verr := u.Apply(o).Props().Options().Validate(); verr != nil {
				err = multierr.Append(err, fmt.Errorf("steps[%d]: update %q: %w", i, u.Observer, verr))
			}
		}
	}
	return err
}

// Problems splits a Validate error into its individual problems.
func Problems(err error) []error {
	return multierr.Errors(err)
}

func (s Step) kinds() int {
	return countTrue(
		len(s.Mount) > 0,
		s.Update != nil,
		len(s.Unmount) > 0,
		len(s.Dispatch) > 0,
		s.Prune,
	)
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func hasKey(m map[string]Observer, k string) bool {
	_, ok := m[k]
	return ok
}
