package main

import (
	"fmt"
	"os"

	"github.com/bgrewell/cdr-kit"
	"github.com/bgrewell/cdr-kit/pkg/driver"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/msf"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/scsi"
	"github.com/bgrewell/usage"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printDriveInfo(d driver.Driver) {
	info, err := d.DriveInfo()
	if err != nil {
		fmt.Printf("Drive info:         %v\n", err)
		return
	}
	fmt.Printf("Maximum read speed:  %dx\n", info.MaxReadSpeed)
	fmt.Printf("Current read speed:  %dx\n", info.CurrentReadSpeed)
	fmt.Printf("Maximum write speed: %dx\n", info.MaxWriteSpeed)
	fmt.Printf("Current write speed: %dx\n", info.CurrentWriteSpeed)
	fmt.Printf("Accurate audio:      %s\n", yesNo(info.AccurateAudioStream))
	fmt.Printf("Simulation:          %s\n", yesNo(info.TestWrite))
}

func printDiskInfo(d driver.Driver) {
	info, err := d.DiskInfo()
	if err != nil {
		fmt.Printf("Disk info:           %v\n", err)
		return
	}
	if info.Valid.CDRW {
		fmt.Printf("CD-RW:               %s\n", yesNo(info.CDRW))
	}
	if info.Valid.Empty {
		fmt.Printf("Empty:               %s\n", yesNo(info.Empty))
	}
	if info.Valid.Append {
		fmt.Printf("Appendable:          %s\n", yesNo(info.Append))
	}
	if info.Valid.Capacity {
		fmt.Printf("Capacity:            %s (%d blocks)\n", msf.Msf(info.Capacity), info.Capacity)
	}
	if info.Valid.ManufacturerID {
		fmt.Printf("Manufacturer ID:     %s\n", info.ManufacturerID)
	}
	if info.Valid.RecSpeed {
		fmt.Printf("Recording speed:     %dx - %dx\n", info.RecSpeedLow, info.RecSpeedHigh)
	}
	fmt.Printf("Sessions:            %d\n", info.SessionCount)
	fmt.Printf("Last track:          %d\n", info.LastTrackNr)
	fmt.Printf("Disk type:           %s\n", info.DiskTocType)
}

func main() {

	u := usage.NewUsage(
		usage.WithApplicationName("cdrinfo"),
		usage.WithApplicationDescription("cdrinfo prints the identification, the selected driver, the capabilities and the inserted medium of a CD recorder."),
	)
	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print debug output", "optional", nil)
	noDisk := u.AddBooleanOption("n", "no-disk", false, "Do not query the inserted medium", "optional", nil)
	device := u.AddArgument(1, "device", "SCSI generic device of the recorder, e.g. /dev/sg0", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if device == nil || *device == "" {
		u.PrintError(fmt.Errorf("the recorder <device> must be provided"))
		os.Exit(1)
	}

	level := logging.LEVEL_INFO
	if *verbose {
		level = logging.LEVEL_DEBUG
	}
	log := logging.NewSimpleLogger(os.Stderr, level, true)

	t, err := scsi.OpenSG(*device)
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	inq, err := scsi.Inquiry(t)
	if err != nil {
		t.Close()
		u.PrintError(err)
		os.Exit(1)
	}
	fmt.Printf("Vendor:              %s\n", inq.Vendor)
	fmt.Printf("Product:             %s\n", inq.Product)
	fmt.Printf("Revision:            %s\n", inq.Revision)

	d, err := cdrkit.New(t, options.WithLogger(log))
	if err != nil {
		t.Close()
		u.PrintError(err)
		os.Exit(1)
	}
	defer d.Close()
	fmt.Printf("Driver:              %s (options 0x%x)\n", d.Name(), d.Options())

	printDriveInfo(d)
	if !*noDisk {
		printDiskInfo(d)
	}
}
