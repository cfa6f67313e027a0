//go:build !linux

package scsi

import "time"

// SGTransport is only available on Linux.
type SGTransport struct{}

func OpenSG(device string) (*SGTransport, error) {
	return nil, ErrUnsupportedPlatform
}

func (s *SGTransport) SetTimeout(d time.Duration) {}

func (s *SGTransport) SendCmd(cdb, out, in []byte) error {
	return ErrUnsupportedPlatform
}

func (s *SGTransport) Close() error {
	return nil
}
