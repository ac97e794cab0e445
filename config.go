package pyjamaz

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// FileConfig is the on-disk shape of a pyjamaz.toml config file,
// providing defaults cmd/pyjamaz merges with flags before building Jobs.
type FileConfig struct {
	MaxBytes    *uint32  `toml:"max_bytes"`
	MaxDiff     *float64 `toml:"max_diff"`
	Metric      string   `toml:"metric"`
	Formats     []string `toml:"formats"`
	Concurrency int      `toml:"concurrency"`
	MaxWidth    int       `toml:"max_width"`
	MaxHeight   int       `toml:"max_height"`
	Sharpen     float64   `toml:"sharpen"`
	StripICC    bool      `toml:"strip_icc"`
}

// LoadConfig decodes a TOML config file into a FileConfig.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("pyjamaz: load config %q: %w", path, err)
	}
	return cfg, nil
}

// ParseFormat maps a config/flag string to a Format, defaulting to
// FormatUnknown for unrecognized names; the config and CLI callers skip
// such entries.
func ParseFormat(s string) Format {
	switch s {
	case "jpeg", "jpg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "webp":
		return FormatWebP
	case "avif":
		return FormatAVIF
	default:
		return FormatUnknown
	}
}

// ParseMetric maps a config/flag string to a Metric.
func ParseMetric(s string) Metric {
	switch s {
	case "dssim":
		return MetricDSSIM
	case "ssimulacra2":
		return MetricSSIMULACRA2
	case "butteraugli":
		return MetricButteraugli
	default:
		return MetricNone
	}
}

// ToJob builds a Job for one input/output pair from a FileConfig, applying
// defaults for any zero-valued field.
func (c FileConfig) ToJob(input, output string) Job {
	job := DefaultJob(input, output)

	job.MaxBytes = c.MaxBytes
	job.MaxDiff = c.MaxDiff
	if c.Metric != "" {
		job.Metric = ParseMetric(c.Metric)
	}
	if len(c.Formats) > 0 {
		formats := make([]Format, 0, len(c.Formats))
		for _, f := range c.Formats {
			if pf := ParseFormat(f); pf != FormatUnknown {
				formats = append(formats, pf)
			}
		}
		if len(formats) > 0 {
			job.Formats = formats
		}
	}
	if c.Concurrency > 0 {
		job.Concurrency = c.Concurrency
	}
	job.Transform.MaxWidth = c.MaxWidth
	job.Transform.MaxHeight = c.MaxHeight
	job.Transform.Sharpen = c.Sharpen
	job.Transform.StripICC = c.StripICC

	return job
}
