//go:build linux

package scsi

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sgIO            = 0x2285
	sgDxferNone     = -1
	sgDxferToDev    = -2
	sgDxferFromDev  = -3
	sgInterfaceID   = 'S'
	senseBufLen     = 32
	driverSenseMask = 0x08
	defaultTimeout  = 60 * time.Second
)

// sgIoHdr mirrors struct sg_io_hdr from <scsi/sg.h>.
type sgIoHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         *byte
	cmdp           *byte
	sbp            *byte
	timeout        uint32
	flags          uint32
	packID         int32
	usrPtr         uintptr
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

// SGTransport talks to a device node (/dev/sr0, /dev/sg1, ...) through the SG_IO ioctl.
type SGTransport struct {
	fd      int
	timeout time.Duration
}

// OpenSG opens the device node for pass-through commands.
func OpenSG(device string) (*SGTransport, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open SCSI device %q: %w", device, err)
	}
	return &SGTransport{fd: fd, timeout: defaultTimeout}, nil
}

// SetTimeout changes the per command timeout. Blanking a disc needs a long one.
func (s *SGTransport) SetTimeout(d time.Duration) {
	s.timeout = d
}

func (s *SGTransport) SendCmd(cdb, out, in []byte) error {
	if len(cdb) == 0 {
		return fmt.Errorf("empty CDB")
	}
	sense := make([]byte, senseBufLen)
	hdr := sgIoHdr{
		interfaceID:    sgInterfaceID,
		dxferDirection: sgDxferNone,
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        uint8(len(sense)),
		cmdp:           &cdb[0],
		sbp:            &sense[0],
		timeout:        uint32(s.timeout / time.Millisecond),
	}
	switch {
	case len(out) > 0:
		hdr.dxferDirection = sgDxferToDev
		hdr.dxferLen = uint32(len(out))
		hdr.dxferp = &out[0]
	case len(in) > 0:
		hdr.dxferDirection = sgDxferFromDev
		hdr.dxferLen = uint32(len(in))
		hdr.dxferp = &in[0]
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), sgIO, uintptr(unsafe.Pointer(&hdr)))
	if errno != 0 {
		return fmt.Errorf("SG_IO ioctl failed for command 0x%02x: %w", cdb[0], errno)
	}
	if hdr.status != 0 || hdr.hostStatus != 0 || (hdr.driverStatus&^driverSenseMask) != 0 || hdr.sbLenWr > 0 {
		return ParseSense(cdb[0], hdr.status, sense[:hdr.sbLenWr])
	}
	return nil
}

func (s *SGTransport) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}
