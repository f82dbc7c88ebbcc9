package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Transmitter configuration.
 *
 * Description:	A small YAML file covers what the surrounding program
 *		needs to know: which GPIO chip and line offsets drive
 *		the antenna, the synthesis clock granularity, the FIFO
 *		depth, and how long to run before the caller resyncs the
 *		clock.  Everything has a sensible default; an empty file
 *		is a valid configuration.
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// GPIO output.
	Chip string `yaml:"chip"` // e.g. "gpiochip0"
	PinP int    `yaml:"pin_p"`
	PinN int    `yaml:"pin_n"`

	// Synthesis clock ticks per 77.5 kHz carrier cycle.  Must be a
	// multiple of 8; the default keeps the 15.6 degree phase shift
	// an integer tick count.
	TicksPerCycle int `yaml:"ticks_per_cycle"`

	// Descriptor FIFO depth between scheduler and sequencer.
	FIFODepth int `yaml:"fifo_depth"`

	// Seconds to transmit before exiting so the caller can resync
	// the system clock.  0 means run forever.
	ResyncSeconds int `yaml:"resync_seconds"`

	// strftime format for the per minute report timestamps.
	TimestampFormat string `yaml:"timestamp_format"`
}

func DefaultConfig() Config {
	return Config{
		Chip:            "gpiochip0",
		PinP:            2,
		PinN:            3,
		TicksPerCycle:   DefaultTicksPerCycle,
		FIFODepth:       DefaultFIFODepth,
		ResyncSeconds:   60 * 60 * 24 * 7 / 2, // half a week; free running longer drifts too far
		TimestampFormat: "%Y-%m-%d %H:%M:%S",
	}
}

// LoadConfig reads path over the defaults.  Unknown keys are an error;
// a typo in a pin name should not silently key the wrong line.
func LoadConfig(path string) (Config, error) {
	var cfg = DefaultConfig()
	var raw, err = os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var dec = yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("dcf77: config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Chip == "" {
		return fmt.Errorf("dcf77: config: chip must not be empty")
	}
	if c.PinP < 0 || c.PinN < 0 || c.PinP == c.PinN {
		return fmt.Errorf("dcf77: config: pin pair %d/%d invalid", c.PinP, c.PinN)
	}
	if c.TicksPerCycle <= 0 || c.TicksPerCycle%8 != 0 {
		return fmt.Errorf("dcf77: config: ticks_per_cycle %d is not a positive multiple of 8", c.TicksPerCycle)
	}
	if c.FIFODepth < 1 {
		return fmt.Errorf("dcf77: config: fifo_depth %d must be at least 1", c.FIFODepth)
	}
	if c.ResyncSeconds < 0 {
		return fmt.Errorf("dcf77: config: resync_seconds %d must not be negative", c.ResyncSeconds)
	}
	return nil
}

// SystemFreqHz is the tick rate implied by the carrier granularity.
func (c Config) SystemFreqHz() int64 {
	return int64(CarrierFreqHz) * int64(c.TicksPerCycle)
}
