package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gregLibert/card-explorer/pkg/discovery"
	"github.com/gregLibert/card-explorer/pkg/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullDocument = `
log:
  level: debug
reader:
  filter: ACR122
  poll_interval: 250ms
discovery:
  pse_name: 2PAY.SYS.DDF01
  first_record: 1
  last_record: 10
  file_policy: afl
  application_sfi: 1
  gpo_command: 80 A8 00 00 02 83 00 00
events:
  path: /tmp/events.cbor
  buffer: 16
`

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "ACR122", cfg.Reader.Filter)
	assert.Equal(t, 250*time.Millisecond, cfg.Reader.PollInterval)
	assert.Equal(t, discovery.Config{
		PSEName:        "2PAY.SYS.DDF01",
		FirstRecord:    1,
		LastRecord:     10,
		FilePolicy:     discovery.LocatorFile,
		ApplicationSFI: 1,
		GPOCommand:     tlv.Hex("80A8000002830000"),
	}, cfg.Discovery)
	assert.Equal(t, "/tmp/events.cbor", cfg.EventsPath)
	assert.Equal(t, 16, cfg.EventsBuffer)
}

func TestParse_Partial(t *testing.T) {
	cfg, err := Parse([]byte("discovery:\n  last_record: 4\n"))
	require.NoError(t, err)

	want := Default()
	want.Discovery.LastRecord = 4
	assert.Equal(t, want, cfg)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"Record out of range": "discovery:\n  last_record: 300\n",
		"Unknown policy":      "discovery:\n  file_policy: all\n",
		"SFI zero":            "discovery:\n  application_sfi: 0\n",
		"Bad GPO command":     "discovery:\n  gpo_command: 80A8\n",
		"Long PSE name":       "discovery:\n  pse_name: 1PAY.SYS.DDF01.TOO.LONG\n",
		"Bad level":           "log:\n  level: loud\n",
		"Bad interval":        "reader:\n  poll_interval: soon\n",
		"Zero buffer":         "events:\n  buffer: 0\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestParse_Rejected(t *testing.T) {
	tests := map[string]string{
		"Unknown key":   "discovery:\n  retries: 3\n",
		"Not a mapping": "- a\n- b\n",
		"Empty range":   "discovery:\n  first_record: 5\n  last_record: 4\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullDocument), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, discovery.LocatorFile, cfg.Discovery.FilePolicy)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
