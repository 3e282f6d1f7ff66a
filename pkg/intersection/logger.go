package intersection

import (
	"sync"

	"go.uber.org/zap"

	"github.com/go-drift/intersect/pkg/registry"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// Logger returns the logger subscriptions write their observe and unobserve
// records to, at debug level. Until SetLogger is called it is the registry
// package logger named "intersection", so one registry.SetLogger call
// enables both pool and lifecycle records.
func Logger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	return registry.Logger().Named("intersection")
}

// SetLogger routes subscription records to l instead of the registry logger.
// Pass nil to fall back again.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}
