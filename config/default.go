package config

import (
	"bytes"
	"io"
	"os"
	"path"
	"text/template"

	"github.com/pkg/errors"

	"ramret/log"
	"ramret/ram"
)

var DefaultConfig = Config{
	LogLevel: log.LevelInfo.String(),
	RAM:      NewRAMConfig(ram.DefaultGeometry()),
	Sim: SimConfig{
		ScrambleSeed: 0,
	},
	Tuning: TuningConfig{
		SRAM: SRAMConfig{
			FlushPerSec: 4,
			FlushBurst:  1,
		},
		Persister: PersisterConfig{
			FlushIntervalMS: 1000,
		},
		Scrubber: ScrubberConfig{
			IntervalMS: 30000,
			Workers:    2,
		},
		Counter: CounterConfig{
			IntervalMS: 100,
		},
		Uptime: UptimeConfig{
			IntervalMS: 1000,
		},
	},
}

const defaultConfigTemplateText = `# ramretd Config File

# Sets the log level. Can be one of the following values:
# - error
# - warn
# - info
# - debug
# - trace
log_level = "{{.LogLevel}}"

# Describes the layout of the memory being guarded. The defaults
# match an nRF52 with 256 KiB of RAM: eight blocks of two 4 KiB
# sections, then 32 KiB sections in the blocks above them. Changing
# any of these values invalidates existing snapshots, so the next
# start comes up cold.
[ram]
  # Sets the base address of the guarded memory.
  base = {{.RAM.Base}}
  # Sets the total size of the guarded memory in bytes.
  size = {{.RAM.Size}}
  # Sets the section size within the small blocks.
  small_section_size = {{.RAM.SmallSectionSize}}
  # Sets how many sections each small block holds.
  small_sections_per_block = {{.RAM.SmallSectionsPerBlock}}
  # Sets how many small blocks precede the large ones.
  small_block_count = {{.RAM.SmallBlockCount}}
  # Sets the section size within the large blocks.
  large_section_size = {{.RAM.LargeSectionSize}}
  # Sets how many sections each large block holds.
  large_sections_per_block = {{.RAM.LargeSectionsPerBlock}}

# Configures the power cycle simulation.
[sim]
  # Seeds the garbage written over non-retained sections at wake.
  # Zero seeds from the clock on every start.
  scramble_seed = {{.Sim.ScrambleSeed}}

# Configures various internal tuning parameters. Unless directed otherwise
# or you know what you are doing, these values should be left as their
# defaults.
[tuning]

  # Configures the boot counter workload.
  [tuning.counter]
    # Sets how often the counter increments.
    interval_ms = {{.Tuning.Counter.IntervalMS}}

  # Configures the image persister.
  [tuning.persister]
    # Sets how often the image is swept back to disk when dirty.
    flush_interval_ms = {{.Tuning.Persister.FlushIntervalMS}}

  # Configures the record scrubber.
  [tuning.scrubber]
    # Sets how often every record is re-validated.
    interval_ms = {{.Tuning.Scrubber.IntervalMS}}
    # Sets how many records are validated concurrently.
    workers = {{.Tuning.Scrubber.Workers}}

  # Configures the in-memory image.
  [tuning.sram]
    # Sets how many inline image flushes per second record updates
    # may trigger before writes are left to the persister.
    flush_per_sec = {{.Tuning.SRAM.FlushPerSec}}
    # Sets the burst allowance on top of flush_per_sec.
    flush_burst = {{.Tuning.SRAM.FlushBurst}}

  # Configures the uptime accumulator workload.
  [tuning.uptime]
    # Sets how often the powered-on time folds into its record.
    interval_ms = {{.Tuning.Uptime.IntervalMS}}
`

var defaultConfigTemplate *template.Template

func GenerateDefaultConfigFile() []byte {
	buf := new(bytes.Buffer)
	if err := defaultConfigTemplate.Execute(buf, DefaultConfig); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func ReadConfigFile(homeDir string) (*Config, error) {
	f, err := os.OpenFile(path.Join(homeDir, "config.toml"), os.O_RDONLY, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "error opening config file for reading")
	}
	defer f.Close()
	cfg, err := ReadConfig(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	return cfg, nil
}

func WriteDefaultConfigFile(homeDir string) error {
	f, err := os.OpenFile(path.Join(homeDir, "config.toml"), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return errors.Wrap(err, "error opening config file for writing")
	}
	defer f.Close()
	rd := bytes.NewReader(GenerateDefaultConfigFile())
	if _, err := io.Copy(f, rd); err != nil {
		return errors.Wrap(err, "error writing config file")
	}
	return nil
}

func init() {
	tmpl := template.New("defaultConfig")
	t, err := tmpl.Parse(defaultConfigTemplateText)
	if err != nil {
		panic(err)
	}
	defaultConfigTemplate = t
}
