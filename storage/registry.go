package storage

import (
	"fmt"
)

// Adapter tags a raw connection with the dialect it speaks. Adapters
// are resolved by probing the connection's concrete type, so callers
// hand the Manager a *sql.DB or *mongo.Database and nothing else.
type Adapter interface {
	Dialect() string
}

// Driver owns the schema and the repositories for one dialect.
type Driver interface {
	Dialect() string
	Migrate() error
}

type adapterMatcher func(conn any) bool
type adapterFactory func(conn any) (Adapter, error)
type driverFactory func(adapter Adapter) (Driver, error)

type adapterEntry struct {
	match   adapterMatcher
	factory adapterFactory
}

var (
	adapterRegistry []adapterEntry
	driverRegistry  = make(map[string]driverFactory)
)

// RegisterAdapter adds a connection probe. Probes run in registration
// order; the first match wins.
func RegisterAdapter(match adapterMatcher, factory adapterFactory) {
	adapterRegistry = append(adapterRegistry, adapterEntry{match: match, factory: factory})
}

// RegisterDriver binds a dialect name to its driver factory.
func RegisterDriver(dialect string, factory driverFactory) {
	driverRegistry[dialect] = factory
}

// RegistryAdapter resolves a raw connection to its adapter, or
// ErrNoAdapter when no probe recognizes the connection type.
func RegistryAdapter(conn any) (Adapter, error) {
	for _, entry := range adapterRegistry {
		if entry.match(conn) {
			return entry.factory(conn)
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrNoAdapter, conn)
}

// RegistryDriver builds the driver for an adapter's dialect.
func RegistryDriver(adapter Adapter) (Driver, error) {
	dialect := adapter.Dialect()
	f, ok := driverRegistry[dialect]
	if !ok {
		return nil, fmt.Errorf("no driver registered for dialect: %s", dialect)
	}
	return f(adapter)
}
