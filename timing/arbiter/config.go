package arbiter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/mempoolsim/timing/agematrix"
	"github.com/sarchlab/mempoolsim/timing/integrity"
)

// Config holds the elaboration-time parameters of the response arbiter.
// Values default to the MemPool tile response arbiter.
type Config struct {
	// NumEntries is the number of requester ports (age matrix slots).
	// Default: 4.
	NumEntries int `json:"num_entries"`

	// NumEnq is the number of new requests registered in the age matrix per
	// tick. Only 1 and 2 are supported. Default: 2.
	NumEnq int `json:"num_enq"`

	// NumOut is the number of output lanes granted per tick. Default: 2.
	NumOut int `json:"num_out"`

	// PayloadBits is the width of the data carried with each request. The
	// arbiter never looks at the payload; the value is kept for reporting.
	// Default: 32.
	PayloadBits int `json:"payload_bits"`
}

// DefaultConfig returns the MemPool tile configuration.
func DefaultConfig() *Config {
	return &Config{
		NumEntries:  4,
		NumEnq:      2,
		NumOut:      2,
		PayloadBits: 32,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read arbiter config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse arbiter config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arbiter config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize arbiter config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write arbiter config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration can be elaborated.
func (c *Config) Validate() error {
	if c.NumOut < 1 {
		return integrity.NewConfigurationError("NumOut", c.NumOut,
			"must be at least 1")
	}

	if err := c.AgeMatrixConfig().Validate(); err != nil {
		return err
	}

	if c.PayloadBits < 1 {
		return integrity.NewConfigurationError("PayloadBits", c.PayloadBits,
			"must be at least 1")
	}

	return nil
}

// AgeMatrixConfig returns the dimensions of the age matrix the arbiter
// builds: one slot per port and one selection lane per output.
func (c *Config) AgeMatrixConfig() agematrix.Config {
	return agematrix.Config{
		NumEntries: c.NumEntries,
		NumEnq:     c.NumEnq,
		NumSel:     c.NumOut,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
