package driver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
)

// Constructor creates a driver on top of a transport.
type Constructor func(t scsi.Transport, driverOptions uint32, opts ...options.Option) (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		"generic-mmc": func(t scsi.Transport, driverOptions uint32, opts ...options.Option) (Driver, error) {
			return NewGenericMMC(t, driverOptions, opts...), nil
		},
		"plextor": func(t scsi.Transport, driverOptions uint32, opts ...options.Option) (Driver, error) {
			return NewPlextor(t, driverOptions, opts...), nil
		},
	}
)

// Register makes a driver available under id, replacing a previous registration.
func Register(id string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = ctor
}

// CreateDriver creates the driver registered under id.
func CreateDriver(id string, driverOptions uint32, t scsi.Transport, opts ...options.Option) (Driver, error) {
	registryMu.RLock()
	ctor, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, id)
	}
	return ctor(t, driverOptions, opts...)
}

// DriverIds returns the registered driver ids in sorted order.
func DriverIds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	_ Driver             = (*GenericMMC)(nil)
	_ FormattedTocReader = (*GenericMMC)(nil)
	_ Driver             = (*Plextor)(nil)
	_ IndexLocator       = (*Plextor)(nil)
)
