package cdrkit_test

import (
	"testing"

	cdrkit "github.com/bgrewell/cdr-kit"
	itesting "github.com/bgrewell/cdr-kit/internal/testing"
	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inquiry(deviceType byte, vendor, product string) []byte {
	data := make([]byte, scsi.INQUIRY_LEN)
	data[0] = deviceType
	copy(data[8:16], []byte(vendor+"        "))
	copy(data[16:32], []byte(product+"                "))
	copy(data[32:36], "1.00")
	return data
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		vendor  string
		product string
		id      string
		flags   uint32
	}{
		{"write table", "PLEXTOR", "CD-R   PX-W4012A", "plextor", 0},
		{"read table", "TOSHIBA", "CD-ROM XM-6201TA", "generic-mmc", driver.OPT_DRV_GET_TOC_GENERIC},
		{"unknown drive", "NONAME", "DVD-RW 1234", cdrkit.DEFAULT_DRIVER, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := itesting.NewRecordingTransport()
			tr.RespondData(0x12, inquiry(scsi.DEVICE_TYPE_CDROM, tt.vendor, tt.product))

			d, err := cdrkit.New(tr)
			require.NoError(t, err)
			assert.Equal(t, tt.id, d.Name())
			assert.Equal(t, tt.flags, d.Options())
		})
	}
}

func TestNewRequestedDriver(t *testing.T) {
	tr := itesting.NewRecordingTransport()

	d, err := cdrkit.New(tr, options.WithDriver("plextor", driver.OPT_DRV_NO_PREGAP_READ))
	require.NoError(t, err)
	assert.Equal(t, "plextor", d.Name())
	assert.Equal(t, uint32(driver.OPT_DRV_NO_PREGAP_READ), d.Options())
	assert.Empty(t, tr.Commands())

	_, err = cdrkit.New(tr, options.WithDriver("unknown", 0))
	assert.ErrorIs(t, err, driver.ErrUnknownDriver)
}

func TestNewRejectsOtherDevices(t *testing.T) {
	tr := itesting.NewRecordingTransport()
	tr.RespondData(0x12, inquiry(0x00, "ACME", "DISK"))

	_, err := cdrkit.New(tr)
	assert.ErrorIs(t, err, cdrkit.ErrNotCdDevice)
}

func TestNewInquiryFails(t *testing.T) {
	tr := itesting.NewRecordingTransport()
	tr.Fail(0x12, &scsi.CommandError{Op: 0x12, SenseKey: scsi.SENSE_NOT_READY})

	_, err := cdrkit.New(tr)
	var cmdErr *scsi.CommandError
	assert.ErrorAs(t, err, &cmdErr)
}
