package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
)

// ExecutorFactory creates a QueryExecutor for a set of credentials.
type ExecutorFactory func(ctx context.Context, creds Credentials, logger *zap.Logger) (QueryExecutor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ExecutorFactory)
)

// Register makes an executor factory available under the given driver name.
// Driver subpackages call Register from init(); importing a driver package
// is what enables its driver.
func Register(driver string, factory ExecutorFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("datasource: Register called with nil factory for driver " + driver)
	}
	if _, dup := registry[driver]; dup {
		panic("datasource: Register called twice for driver " + driver)
	}
	registry[driver] = factory
}

// NewExecutor opens a QueryExecutor using the registered factory for the
// credentials' driver.
func NewExecutor(ctx context.Context, creds Credentials, logger *zap.Logger) (QueryExecutor, error) {
	registryMu.RLock()
	factory, ok := registry[creds.Driver]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("driver %q (registered: %v): %w",
			creds.Driver, RegisteredDrivers(), apperrors.ErrUnsupportedDriver)
	}

	return factory(ctx, creds, logger)
}

// RegisteredDrivers returns the sorted names of all registered drivers.
func RegisteredDrivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	drivers := make([]string, 0, len(registry))
	for name := range registry {
		drivers = append(drivers, name)
	}
	sort.Strings(drivers)
	return drivers
}
