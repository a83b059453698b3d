// Package config loads the card-explorer YAML configuration.
//
// A document may set any subset of the keys below; missing keys keep their
// default. The document is checked against an embedded JSON schema before
// it is applied.
//
//	log:
//	  level: info
//	reader:
//	  filter: ACR122
//	  poll_interval: 1s
//	discovery:
//	  pse_name: 1PAY.SYS.DDF01
//	  first_record: 0
//	  last_record: 8
//	  file_policy: fixed     # or afl
//	  application_sfi: 2
//	  gpo_command: 80 A8 00 00 02 83 00 00
//	events:
//	  path: events.cbor
//	  buffer: 64
package config

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gregLibert/card-explorer/pkg/discovery"
	"github.com/gregLibert/card-explorer/pkg/reader"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"
)

//go:embed schema.json
var schema string

// Config is the resolved configuration.
type Config struct {
	LogLevel slog.Level

	Reader    reader.Options
	Discovery discovery.Config

	// EventsPath receives the CBOR event stream when not empty.
	EventsPath   string
	EventsBuffer int
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		LogLevel:     slog.LevelInfo,
		Reader:       reader.Options{PollInterval: reader.DefaultPollInterval},
		Discovery:    discovery.DefaultConfig(),
		EventsBuffer: 64,
	}
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration:\n  - " + strings.Join(e.Errors, "\n  - ")
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over Default.
func Parse(data []byte) (Config, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate(&doc); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := doc.apply(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Discovery.Validate(); err != nil {
		return Config{}, fmt.Errorf("discovery: %w", err)
	}
	return cfg, nil
}

func validate(doc *document) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, desc.String())
	}
	return verr
}

// document mirrors the YAML layout. Pointers tell unset keys from zero values.
type document struct {
	Log       *logSection       `yaml:"log" json:"log,omitempty"`
	Reader    *readerSection    `yaml:"reader" json:"reader,omitempty"`
	Discovery *discoverySection `yaml:"discovery" json:"discovery,omitempty"`
	Events    *eventsSection    `yaml:"events" json:"events,omitempty"`
}

type logSection struct {
	Level *string `yaml:"level" json:"level,omitempty"`
}

type readerSection struct {
	Filter       *string `yaml:"filter" json:"filter,omitempty"`
	PollInterval *string `yaml:"poll_interval" json:"poll_interval,omitempty"`
}

type discoverySection struct {
	PSEName        *string `yaml:"pse_name" json:"pse_name,omitempty"`
	FirstRecord    *int    `yaml:"first_record" json:"first_record,omitempty"`
	LastRecord     *int    `yaml:"last_record" json:"last_record,omitempty"`
	FilePolicy     *string `yaml:"file_policy" json:"file_policy,omitempty"`
	ApplicationSFI *int    `yaml:"application_sfi" json:"application_sfi,omitempty"`
	GPOCommand     *string `yaml:"gpo_command" json:"gpo_command,omitempty"`
}

type eventsSection struct {
	Path   *string `yaml:"path" json:"path,omitempty"`
	Buffer *int    `yaml:"buffer" json:"buffer,omitempty"`
}

func (d *document) apply(cfg *Config) error {
	if s := d.Log; s != nil && s.Level != nil {
		if err := cfg.LogLevel.UnmarshalText([]byte(*s.Level)); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	if s := d.Reader; s != nil {
		if s.Filter != nil {
			cfg.Reader.Filter = *s.Filter
		}
		if s.PollInterval != nil {
			interval, err := time.ParseDuration(*s.PollInterval)
			if err != nil {
				return fmt.Errorf("reader.poll_interval: %w", err)
			}
			cfg.Reader.PollInterval = interval
		}
	}

	if s := d.Discovery; s != nil {
		dc := &cfg.Discovery
		if s.PSEName != nil {
			dc.PSEName = *s.PSEName
		}
		if s.FirstRecord != nil {
			dc.FirstRecord = byte(*s.FirstRecord)
		}
		if s.LastRecord != nil {
			dc.LastRecord = byte(*s.LastRecord)
		}
		if s.FilePolicy != nil {
			dc.FilePolicy = discovery.FilePolicy(*s.FilePolicy)
		}
		if s.ApplicationSFI != nil {
			dc.ApplicationSFI = byte(*s.ApplicationSFI)
		}
		if s.GPOCommand != nil {
			raw, err := hex.DecodeString(strings.ReplaceAll(*s.GPOCommand, " ", ""))
			if err != nil {
				return fmt.Errorf("discovery.gpo_command: %w", err)
			}
			dc.GPOCommand = raw
		}
	}

	if s := d.Events; s != nil {
		if s.Path != nil {
			cfg.EventsPath = *s.Path
		}
		if s.Buffer != nil {
			cfg.EventsBuffer = *s.Buffer
		}
	}
	return nil
}
