package config

import (
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"ramret/ram"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	RAM      RAMConfig    `mapstructure:"ram"`
	Sim      SimConfig    `mapstructure:"sim"`
	Tuning   TuningConfig `mapstructure:"tuning"`
}

type RAMConfig struct {
	Base                  uint32 `mapstructure:"base"`
	Size                  uint32 `mapstructure:"size"`
	SmallSectionSize      uint32 `mapstructure:"small_section_size"`
	SmallSectionsPerBlock uint32 `mapstructure:"small_sections_per_block"`
	SmallBlockCount       uint32 `mapstructure:"small_block_count"`
	LargeSectionSize      uint32 `mapstructure:"large_section_size"`
	LargeSectionsPerBlock uint32 `mapstructure:"large_sections_per_block"`
}

func NewRAMConfig(geo ram.Geometry) RAMConfig {
	return RAMConfig{
		Base:                  geo.Base,
		Size:                  geo.Size,
		SmallSectionSize:      geo.SmallSectionSize,
		SmallSectionsPerBlock: geo.SmallSectionsPerBlock,
		SmallBlockCount:       geo.SmallBlockCount,
		LargeSectionSize:      geo.LargeSectionSize,
		LargeSectionsPerBlock: geo.LargeSectionsPerBlock,
	}
}

// Geometry converts the configured layout back into its structured
// form. Callers must Validate the result before building on it.
func (r RAMConfig) Geometry() ram.Geometry {
	return ram.Geometry{
		Base:                  r.Base,
		Size:                  r.Size,
		SmallSectionSize:      r.SmallSectionSize,
		SmallSectionsPerBlock: r.SmallSectionsPerBlock,
		SmallBlockCount:       r.SmallBlockCount,
		LargeSectionSize:      r.LargeSectionSize,
		LargeSectionsPerBlock: r.LargeSectionsPerBlock,
	}
}

type SimConfig struct {
	ScrambleSeed int64 `mapstructure:"scramble_seed"`
}

type TuningConfig struct {
	SRAM      SRAMConfig      `mapstructure:"sram"`
	Persister PersisterConfig `mapstructure:"persister"`
	Scrubber  ScrubberConfig  `mapstructure:"scrubber"`
	Counter   CounterConfig   `mapstructure:"counter"`
	Uptime    UptimeConfig    `mapstructure:"uptime"`
}

type SRAMConfig struct {
	FlushPerSec int `mapstructure:"flush_per_sec"`
	FlushBurst  int `mapstructure:"flush_burst"`
}

type PersisterConfig struct {
	FlushIntervalMS int `mapstructure:"flush_interval_ms"`
}

type ScrubberConfig struct {
	IntervalMS int `mapstructure:"interval_ms"`
	Workers    int `mapstructure:"workers"`
}

type CounterConfig struct {
	IntervalMS int `mapstructure:"interval_ms"`
}

type UptimeConfig struct {
	IntervalMS int `mapstructure:"interval_ms"`
}

func ReadConfig(r io.Reader) (*Config, error) {
	decoder := toml.NewDecoder(r)
	decoder.SetTagName("mapstructure")
	config := &Config{}
	if err := decoder.Decode(config); err != nil {
		return nil, errors.Wrap(err, "error decoding config file")
	}
	return config, nil
}

func ConvertDuration(base int, unit time.Duration) time.Duration {
	return time.Duration(base) * unit
}
