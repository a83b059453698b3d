package discovery

import (
	"testing"

	"github.com/gregLibert/card-explorer/pkg/tlv"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "1PAY.SYS.DDF01", cfg.PSEName)
	assert.Equal(t, byte(0), cfg.FirstRecord)
	assert.Equal(t, byte(8), cfg.LastRecord)
	assert.Equal(t, FixedFile, cfg.FilePolicy)
	assert.Equal(t, byte(2), cfg.ApplicationSFI)
	assert.Equal(t, tlv.Hex("80A8000002830000"), cfg.GPOCommand)
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]func(*Config){
		"Empty PSE name":    func(c *Config) { c.PSEName = "" },
		"Long PSE name":     func(c *Config) { c.PSEName = "2PAY.SYS.DDF01.EXTRA" },
		"Empty range":       func(c *Config) { c.FirstRecord, c.LastRecord = 5, 4 },
		"Unknown policy":    func(c *Config) { c.FilePolicy = "all" },
		"SFI zero":          func(c *Config) { c.ApplicationSFI = 0 },
		"SFI too large":     func(c *Config) { c.ApplicationSFI = 31 },
		"Short GPO command": func(c *Config) { c.GPOCommand = []byte{0x80, 0xA8} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.FilePolicy = LocatorFile
	cfg.ApplicationSFI = 0
	assert.NoError(t, cfg.Validate())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "PseDirectoryReading", PseDirectoryReading.String())
	assert.Equal(t, "State(99)", State(99).String())
	assert.True(t, Done.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, ApplicationSelecting.Terminal())
}
