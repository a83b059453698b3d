package discovery

import (
	"fmt"

	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// FilePolicy chooses which files are read once an application is selected.
type FilePolicy string

const (
	// FixedFile reads the record range of Config.ApplicationSFI for every application.
	FixedFile FilePolicy = "fixed"
	// LocatorFile reads the files listed in the Application File Locator
	// returned by GET PROCESSING OPTIONS.
	LocatorFile FilePolicy = "afl"
)

// PSEName is the Payment System Environment directory name.
const PSEName = "1PAY.SYS.DDF01"

// Config tunes one discovery run.
type Config struct {
	PSEName string

	// FirstRecord and LastRecord bound the READ RECORD loop, both inclusive.
	FirstRecord byte
	LastRecord  byte

	FilePolicy     FilePolicy
	ApplicationSFI byte

	// GPOCommand is sent verbatim after each successful application SELECT.
	GPOCommand []byte
}

// DefaultConfig reads records 0 to 8 and SFI 2 for every application.
func DefaultConfig() Config {
	return Config{
		PSEName:        PSEName,
		FirstRecord:    0,
		LastRecord:     8,
		FilePolicy:     FixedFile,
		ApplicationSFI: 2,
		GPOCommand:     tlv.Hex("80 A8 00 00 02 83 00 00"),
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.PSEName == "" {
		return fmt.Errorf("empty PSE name")
	}
	if len(c.PSEName) > 16 {
		return fmt.Errorf("PSE name %q longer than 16 bytes", c.PSEName)
	}
	if c.FirstRecord > c.LastRecord {
		return fmt.Errorf("record range %d-%d is empty", c.FirstRecord, c.LastRecord)
	}
	switch c.FilePolicy {
	case FixedFile:
		if c.ApplicationSFI == 0 || c.ApplicationSFI > 30 {
			return fmt.Errorf("application SFI %d out of range 1-30", c.ApplicationSFI)
		}
	case LocatorFile:
	default:
		return fmt.Errorf("unknown file policy %q", c.FilePolicy)
	}
	if len(c.GPOCommand) < 4 {
		return fmt.Errorf("GPO command too short: %X", c.GPOCommand)
	}
	return nil
}
