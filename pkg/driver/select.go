package driver

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Table selects the read or write driver table.
type Table int

const (
	TABLE_READ Table = iota
	TABLE_WRITE
)

// DriverEntry is one row of the driver database.
type DriverEntry struct {
	Vendor  string   `yaml:"vendor"`
	Model   string   `yaml:"model"`
	Driver  string   `yaml:"driver"`
	Options []string `yaml:"options"`
}

// Flags returns the option bitmask of the entry.
func (e DriverEntry) Flags() (uint32, error) {
	var flags uint32
	for _, name := range e.Options {
		v, ok := optionNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown driver option %q for %s %s", name, e.Vendor, e.Model)
		}
		flags |= v
	}
	return flags, nil
}

func (e DriverEntry) matches(vendor, model string) bool {
	return e.Vendor == vendor && (e.Model == "*" || e.Model == model)
}

// DriverDatabase holds the read and write driver tables.
type DriverDatabase struct {
	Read  []DriverEntry `yaml:"read"`
	Write []DriverEntry `yaml:"write"`
}

var optionNames = map[string]uint32{
	"OPT_DRV_GET_TOC_GENERIC":   OPT_DRV_GET_TOC_GENERIC,
	"OPT_DRV_SWAP_READ_SAMPLES": OPT_DRV_SWAP_READ_SAMPLES,
	"OPT_DRV_NO_PREGAP_READ":    OPT_DRV_NO_PREGAP_READ,
}

//go:embed drivers.yaml
var driversYaml []byte

var (
	dbOnce sync.Once
	db     *DriverDatabase
	dbErr  error
)

func loadDatabase() (*DriverDatabase, error) {
	dbOnce.Do(func() {
		db, dbErr = ParseDriverTable(driversYaml)
	})
	return db, dbErr
}

// ParseDriverTable reads a driver database in the format of the embedded drivers.yaml.
func ParseDriverTable(data []byte) (*DriverDatabase, error) {
	var d DriverDatabase
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("cannot parse driver table: %w", err)
	}
	for _, list := range [][]DriverEntry{d.Read, d.Write} {
		for _, e := range list {
			if _, err := e.Flags(); err != nil {
				return nil, err
			}
		}
	}
	return &d, nil
}

// Entries returns the rows of a table.
func (d *DriverDatabase) Entries(table Table) []DriverEntry {
	if table == TABLE_WRITE {
		return d.Write
	}
	return d.Read
}

// Select returns the driver id and options for a drive.
func (d *DriverDatabase) Select(table Table, vendor, model string) (string, uint32, error) {
	vendor, model = strings.TrimSpace(vendor), strings.TrimSpace(model)
	for _, e := range d.Entries(table) {
		if e.matches(vendor, model) {
			flags, err := e.Flags()
			if err != nil {
				return "", 0, err
			}
			return e.Driver, flags, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %s %s", ErrNoDriver, vendor, model)
}

// SelectDriver looks up the driver of a drive in the embedded database.
func SelectDriver(table Table, vendor, model string) (string, uint32, error) {
	d, err := loadDatabase()
	if err != nil {
		return "", 0, err
	}
	return d.Select(table, vendor, model)
}

// DriverTable returns the rows of a table of the embedded database.
func DriverTable(table Table) ([]DriverEntry, error) {
	d, err := loadDatabase()
	if err != nil {
		return nil, err
	}
	return append([]DriverEntry(nil), d.Entries(table)...), nil
}
