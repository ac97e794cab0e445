package pyjamaz

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"jpeg":    FormatJPEG,
		"jpg":     FormatJPEG,
		"png":     FormatPNG,
		"webp":    FormatWebP,
		"avif":    FormatAVIF,
		"bogus":   FormatUnknown,
		"":        FormatUnknown,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseMetric(t *testing.T) {
	cases := map[string]Metric{
		"dssim":       MetricDSSIM,
		"ssimulacra2": MetricSSIMULACRA2,
		"butteraugli": MetricButteraugli,
		"bogus":       MetricNone,
	}
	for in, want := range cases {
		if got := ParseMetric(in); got != want {
			t.Errorf("ParseMetric(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFileConfigToJobAppliesOverrides(t *testing.T) {
	maxBytes := uint32(50000)
	cfg := FileConfig{
		MaxBytes:    &maxBytes,
		Formats:     []string{"webp", "avif"},
		Concurrency: 4,
		MaxWidth:    800,
		Sharpen:     0.5,
		StripICC:    true,
	}

	job := cfg.ToJob("in.jpg", "out.webp")

	if job.MaxBytes == nil || *job.MaxBytes != maxBytes {
		t.Fatal("MaxBytes override did not apply")
	}
	if len(job.Formats) != 2 || job.Formats[0] != FormatWebP || job.Formats[1] != FormatAVIF {
		t.Fatalf("Formats override did not apply: %v", job.Formats)
	}
	if job.Concurrency != 4 {
		t.Fatalf("Concurrency override did not apply: %d", job.Concurrency)
	}
	if job.Transform.MaxWidth != 800 {
		t.Fatalf("MaxWidth override did not apply: %d", job.Transform.MaxWidth)
	}
	if job.Transform.Sharpen != 0.5 {
		t.Fatalf("Sharpen override did not apply: %f", job.Transform.Sharpen)
	}
	if !job.Transform.StripICC {
		t.Fatal("StripICC override did not apply")
	}
}

func TestFileConfigToJobKeepsDefaultsWhenUnset(t *testing.T) {
	job := FileConfig{}.ToJob("in.jpg", "out.jpg")
	if job.Concurrency != DefaultJob("in.jpg", "out.jpg").Concurrency {
		t.Fatal("an unset Concurrency should keep the DefaultJob value")
	}
	if len(job.Formats) == 0 {
		t.Fatal("an unset Formats list should keep the DefaultJob formats")
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyjamaz.toml")
	contents := `
max_bytes = 20000
metric = "dssim"
formats = ["jpeg", "webp"]
concurrency = 2
max_width = 1024
sharpen = 0.3
strip_icc = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 20000 {
		t.Fatalf("unexpected MaxBytes: %v", cfg.MaxBytes)
	}
	if cfg.Metric != "dssim" {
		t.Fatalf("unexpected Metric: %q", cfg.Metric)
	}
	if len(cfg.Formats) != 2 {
		t.Fatalf("unexpected Formats: %v", cfg.Formats)
	}
	if cfg.Concurrency != 2 {
		t.Fatalf("unexpected Concurrency: %d", cfg.Concurrency)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/pyjamaz.toml"); err == nil {
		t.Fatal("expected an error loading a nonexistent config file")
	}
}
