// Package config holds the tunable parameters of a core instance:
// structural sizes, the random instruction generator's seed, and the
// architectural register file's initial state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the parameters needed to construct a core.
type Config struct {
	// ArchRegisterCount is the number of architectural registers the
	// RAT tracks. Default: 8.
	ArchRegisterCount int `json:"arch_register_count"`

	// ROBCapacity is the number of in-flight instructions the
	// reorder buffer can hold at once. Default: 16.
	ROBCapacity int `json:"rob_capacity"`

	// ReservationStationCount is the number of reservation stations
	// in the scheduler. Default: 4.
	ReservationStationCount int `json:"reservation_station_count"`

	// SimulatedCycles is the number of cycles a run drives the
	// pipeline for. Default: 64.
	SimulatedCycles int `json:"simulated_cycles"`

	// RNGSeed seeds the random instruction source. A zero value
	// means "derive a seed from the current time" (see Seed).
	RNGSeed int64 `json:"rng_seed"`

	// InitialRegisterValues seeds the architectural register file.
	// Index i seeds register i; registers beyond len(InitialRegisterValues)
	// default to zero.
	InitialRegisterValues []uint32 `json:"initial_register_values"`
}

// DefaultConfig returns a Config with the core's baseline parameters.
func DefaultConfig() *Config {
	return &Config{
		ArchRegisterCount:       8,
		ROBCapacity:             16,
		ReservationStationCount: 4,
		SimulatedCycles:         64,
		RNGSeed:                 0,
		InitialRegisterValues: []uint32{
			0x00000000, 0x11111111, 0x22222222, 0x33333333,
			0x44444444, 0x55555555, 0x66666666, 0x77777777,
		},
	}
}

// LoadConfig loads a Config from a JSON file, starting from
// DefaultConfig so any field the file omits keeps its default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes c to path as indented JSON.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that c describes a buildable core.
func (c *Config) Validate() error {
	if c.ArchRegisterCount <= 0 {
		return fmt.Errorf("arch_register_count must be > 0")
	}
	if c.ROBCapacity <= 0 {
		return fmt.Errorf("rob_capacity must be > 0")
	}
	if c.ReservationStationCount <= 0 {
		return fmt.Errorf("reservation_station_count must be > 0")
	}
	if c.SimulatedCycles < 0 {
		return fmt.Errorf("simulated_cycles must be >= 0")
	}
	if len(c.InitialRegisterValues) > c.ArchRegisterCount {
		return fmt.Errorf("initial_register_values has %d entries but arch_register_count is %d",
			len(c.InitialRegisterValues), c.ArchRegisterCount)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	clone.InitialRegisterValues = append([]uint32(nil), c.InitialRegisterValues...)
	return &clone
}

// Seed returns the RNG seed to use: RNGSeed if non-zero, otherwise a
// seed derived from the current time.
func (c *Config) Seed() int64 {
	if c.RNGSeed != 0 {
		return c.RNGSeed
	}
	return time.Now().UnixNano()
}
