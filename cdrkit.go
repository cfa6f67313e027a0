package cdrkit

import (
	"errors"
	"fmt"

	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
)

// DEFAULT_DRIVER is used for drives that have no entry in the driver database.
const DEFAULT_DRIVER = "generic-mmc"

var ErrNotCdDevice = errors.New("device is not a CD/DVD drive")

// Open opens a SCSI generic device, e.g. /dev/sg0, and returns the driver for the drive.
func Open(device string, opts ...options.Option) (driver.Driver, error) {
	t, err := scsi.OpenSG(device)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", device, err)
	}
	d, err := New(t, opts...)
	if err != nil {
		t.Close()
		return nil, err
	}
	return d, nil
}

// New creates the driver for the drive behind t. A driver requested with options.WithDriver is
// used as is; otherwise the INQUIRY strings are looked up in the write table, then in the read
// table, and DEFAULT_DRIVER is used when neither has an entry.
func New(t scsi.Transport, opts ...options.Option) (driver.Driver, error) {
	o := options.Apply(opts...)
	log := logging.NewLogger(o.Logger)

	if o.Driver != "" {
		log.Debug("using requested driver", "driver", o.Driver)
		return driver.CreateDriver(o.Driver, 0, t, opts...)
	}

	inq, err := scsi.Inquiry(t)
	if err != nil {
		return nil, err
	}
	if inq.DeviceType != scsi.DEVICE_TYPE_CDROM {
		return nil, fmt.Errorf("%w: %s has device type %d", ErrNotCdDevice, inq, inq.DeviceType)
	}

	id, flags, err := Select(inq)
	if err != nil {
		return nil, err
	}
	log.Info("selected driver", "drive", inq.String(), "driver", id, "options", fmt.Sprintf("0x%x", flags))
	return driver.CreateDriver(id, flags, t, opts...)
}

// Select returns the driver id and OPT_DRV_* flags for a drive.
func Select(inq scsi.InquiryData) (string, uint32, error) {
	for _, table := range []driver.Table{driver.TABLE_WRITE, driver.TABLE_READ} {
		id, flags, err := driver.SelectDriver(table, inq.Vendor, inq.Product)
		if err == nil {
			return id, flags, nil
		}
		if !errors.Is(err, driver.ErrNoDriver) {
			return "", 0, err
		}
	}
	return DEFAULT_DRIVER, 0, nil
}
