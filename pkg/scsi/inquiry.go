package scsi

import (
	"fmt"
	"strings"
)

const (
	INQUIRY_LEN = 36

	// Peripheral device type of CD/DVD devices.
	DEVICE_TYPE_CDROM = 0x05
)

// InquiryData is the standard INQUIRY response.
type InquiryData struct {
	DeviceType byte
	Vendor     string
	Product    string
	Revision   string
}

func (i InquiryData) String() string {
	return fmt.Sprintf("%s %s %s", i.Vendor, i.Product, i.Revision)
}

// ParseInquiry decodes a 36 byte INQUIRY response.
func ParseInquiry(data []byte) (InquiryData, error) {
	if len(data) < INQUIRY_LEN {
		return InquiryData{}, fmt.Errorf("%w: inquiry data has %d bytes", ErrShortResponse, len(data))
	}
	return InquiryData{
		DeviceType: data[0] & 0x1f,
		Vendor:     trimString(data[8:16]),
		Product:    trimString(data[16:32]),
		Revision:   trimString(data[32:36]),
	}, nil
}

// Inquiry sends INQUIRY and decodes the response.
func Inquiry(t Transport) (InquiryData, error) {
	buf := make([]byte, INQUIRY_LEN)
	if err := t.SendCmd(BuildInquiry(), nil, buf); err != nil {
		return InquiryData{}, fmt.Errorf("inquiry failed: %w", err)
	}
	return ParseInquiry(buf)
}

func trimString(b []byte) string {
	return strings.TrimRight(strings.TrimRight(string(b), "\x00"), " ")
}
