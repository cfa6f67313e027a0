package driver_test

import (
	"testing"

	itesting "github.com/bgrewell/cdr-kit/internal/testing"
	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDriver(t *testing.T) {
	tests := []struct {
		name   string
		table  driver.Table
		vendor string
		model  string
		id     string
		flags  uint32
	}{
		{"plextor reader", driver.TABLE_READ, "PLEXTOR", "CD-ROM PX-40TS", "plextor", 0},
		{"padded inquiry strings", driver.TABLE_READ, "PLEXTOR ", "CD-ROM PX-40TS  ", "plextor", 0},
		{"options", driver.TABLE_READ, "LITE-ON", "LTN301", "generic-mmc", driver.OPT_DRV_GET_TOC_GENERIC | driver.OPT_DRV_NO_PREGAP_READ},
		{"wildcard model", driver.TABLE_WRITE, "YAMAHA", "CRW2100S", "generic-mmc", 0},
		{"writer", driver.TABLE_WRITE, "PLEXTOR", "CD-R   PX-W8432T", "plextor", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, flags, err := driver.SelectDriver(tt.table, tt.vendor, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.flags, flags)
		})
	}
}

func TestSelectDriverUnknown(t *testing.T) {
	_, _, err := driver.SelectDriver(driver.TABLE_READ, "YAMAHA", "CRW2100S")
	assert.ErrorIs(t, err, driver.ErrNoDriver)

	_, _, err = driver.SelectDriver(driver.TABLE_WRITE, "NONAME", "DRIVE")
	assert.ErrorIs(t, err, driver.ErrNoDriver)
}

func TestDriverTable(t *testing.T) {
	read, err := driver.DriverTable(driver.TABLE_READ)
	require.NoError(t, err)
	require.NotEmpty(t, read)

	ids := driver.DriverIds()
	for _, e := range read {
		assert.Contains(t, ids, e.Driver, "%s %s", e.Vendor, e.Model)
	}

	// the returned slice is a copy
	read[0].Driver = "changed"
	again, err := driver.DriverTable(driver.TABLE_READ)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again[0].Driver)
}

func TestParseDriverTable(t *testing.T) {
	db, err := driver.ParseDriverTable([]byte(`
read:
  - vendor: ACME
    model: "*"
    driver: plextor
    options: [OPT_DRV_SWAP_READ_SAMPLES]
write:
  - vendor: ACME
    model: Burner
    driver: generic-mmc
`))
	require.NoError(t, err)

	id, flags, err := db.Select(driver.TABLE_READ, "ACME", "anything")
	require.NoError(t, err)
	assert.Equal(t, "plextor", id)
	assert.Equal(t, uint32(driver.OPT_DRV_SWAP_READ_SAMPLES), flags)

	_, _, err = db.Select(driver.TABLE_WRITE, "ACME", "Other")
	assert.ErrorIs(t, err, driver.ErrNoDriver)
	assert.Len(t, db.Entries(driver.TABLE_WRITE), 1)

	_, err = driver.ParseDriverTable([]byte("read:\n  - vendor: X\n    model: Y\n    driver: plextor\n    options: [OPT_DRV_UNKNOWN]\n"))
	assert.Error(t, err)

	_, err = driver.ParseDriverTable([]byte("read: ["))
	assert.Error(t, err)
}

func TestCreateDriver(t *testing.T) {
	tr := itesting.NewRecordingTransport()

	d, err := driver.CreateDriver("generic-mmc", driver.OPT_DRV_GET_TOC_GENERIC, tr)
	require.NoError(t, err)
	assert.Equal(t, "generic-mmc", d.Name())
	assert.Equal(t, uint32(driver.OPT_DRV_GET_TOC_GENERIC), d.Options())

	d, err = driver.CreateDriver("plextor", 0, tr, options.WithDriver("plextor", driver.OPT_DRV_SWAP_READ_SAMPLES))
	require.NoError(t, err)
	assert.Equal(t, "plextor", d.Name())
	assert.Equal(t, uint32(driver.OPT_DRV_SWAP_READ_SAMPLES), d.Options())
	_, ok := d.(driver.IndexLocator)
	assert.True(t, ok)

	_, err = driver.CreateDriver("teac-cdr55", 0, tr)
	assert.ErrorIs(t, err, driver.ErrUnknownDriver)
}

func TestRegister(t *testing.T) {
	driver.Register("test-driver", func(t scsi.Transport, driverOptions uint32, opts ...options.Option) (driver.Driver, error) {
		return driver.NewGenericMMC(t, driverOptions, opts...), nil
	})
	assert.Contains(t, driver.DriverIds(), "test-driver")

	d, err := driver.CreateDriver("test-driver", 0, itesting.NewRecordingTransport())
	require.NoError(t, err)
	assert.NotNil(t, d)
}
