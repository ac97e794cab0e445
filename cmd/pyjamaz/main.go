// Command pyjamaz is a CLI tool for perceptually-guided batch image
// optimization: given one or more images and a byte/quality budget, it
// picks the smallest JPEG, PNG, WebP, or AVIF candidate that still clears
// the quality bar.
//
// Usage:
//
//	pyjamaz [flags] <input> [output]
//	pyjamaz [flags] --out-dir DIR <input...>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ongteckwu/pyjamaz"
)

var (
	flagConfig      string
	flagMaxBytes    uint32
	flagMaxDiff     float64
	flagMetric      string
	flagFormats     []string
	flagMaxWidth    int
	flagMaxHeight   int
	flagSharpen     float64
	flagStripICC    bool
	flagWorkers     int
	flagOutDir      string
	flagManifest    string
	flagVerbose     bool
)

func main() {
	root := &cobra.Command{
		Use:           "pyjamaz [flags] <input> [output]",
		Short:         "Pick the smallest image that still fits",
		SilenceUsage:  true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runRoot,
	}

	root.Flags().StringVar(&flagConfig, "config", "", "path to a pyjamaz.toml config file")
	root.Flags().Uint32Var(&flagMaxBytes, "max-bytes", 0, "byte budget ceiling (0 = unset)")
	root.Flags().Float64Var(&flagMaxDiff, "max-diff", 0, "perceptual distance ceiling (0 = unset)")
	root.Flags().StringVar(&flagMetric, "metric", "", "quality metric: dssim|ssimulacra2|butteraugli")
	root.Flags().StringSliceVar(&flagFormats, "formats", nil, "candidate formats: jpeg,png,webp,avif")
	root.Flags().IntVar(&flagMaxWidth, "max-width", 0, "maximum output width (0 = no limit)")
	root.Flags().IntVar(&flagMaxHeight, "max-height", 0, "maximum output height (0 = no limit)")
	root.Flags().Float64Var(&flagSharpen, "sharpen", 0, "unsharp-mask strength (0-1)")
	root.Flags().BoolVar(&flagStripICC, "strip-icc", false, "drop embedded ICC profiles")
	root.Flags().IntVar(&flagWorkers, "workers", 0, "batch worker count (0 = NumCPU)")
	root.Flags().StringVar(&flagOutDir, "out-dir", "", "write every output into this directory (batch mode)")
	root.Flags().StringVar(&flagManifest, "manifest", "", "write a JSON manifest of all results to this path")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug-level logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("pyjamaz: %v", err))
		os.Exit(exitCodeFor(err))
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	level := logrus.InfoLevel
	if flagVerbose {
		level = logrus.DebugLevel
	}
	log := pyjamaz.NewLogger(level)

	var fileCfg pyjamaz.FileConfig
	if flagConfig != "" {
		var err error
		fileCfg, err = pyjamaz.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
	}

	jobs, err := buildJobs(args, fileCfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("optimizing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	results := pyjamaz.OptimizeBatch(ctx, jobs, pyjamaz.BatchOptions{
		Workers: flagWorkers,
		Logger:  log,
		OnItem: func(completed, total int) {
			bar.Set(completed)
		},
	})

	worst := pyjamaz.ExitSuccess
	for _, r := range results {
		if r.Err != nil {
			worst = worseExitLocal(worst, pyjamaz.ClassifyError(r.Err))
			continue
		}
		if !r.Result.Success {
			worst = worseExitLocal(worst, pyjamaz.ClassifyFailure(r.Result.AllCandidates, r.Job))
		}
		printResult(r.Job, r.Result)
	}

	if flagManifest != "" {
		if err := writeManifest(flagManifest, jobs, results); err != nil {
			return err
		}
	}

	summary := pyjamaz.Summarize(results)
	fmt.Fprintln(os.Stderr, color.CyanString(summary.String()))

	if worst != pyjamaz.ExitSuccess {
		os.Exit(int(worst))
	}
	return nil
}

// buildJobs constructs one Job per input path, merging config defaults with
// flag overrides. In single-pair mode (exactly one input and a second
// positional output path), that output is used verbatim; otherwise every
// input is written into --out-dir (or alongside the input, suffixed, if
// --out-dir is unset).
func buildJobs(args []string, fileCfg pyjamaz.FileConfig) ([]pyjamaz.Job, error) {
	var inputs []string
	var singleOutput string

	if len(args) == 2 && flagOutDir == "" {
		inputs = args[:1]
		singleOutput = args[1]
	} else {
		inputs = args
	}

	if len(inputs) > pyjamaz.MaxInputFiles {
		return nil, fmt.Errorf("pyjamaz: %d inputs exceeds the %d file limit", len(inputs), pyjamaz.MaxInputFiles)
	}

	jobs := make([]pyjamaz.Job, 0, len(inputs))
	for _, input := range inputs {
		output := singleOutput
		if output == "" {
			output = outputPathFor(input)
		}

		job := fileCfg.ToJob(input, output)
		applyFlagOverrides(&job)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func applyFlagOverrides(job *pyjamaz.Job) {
	if flagMaxBytes > 0 {
		v := flagMaxBytes
		job.MaxBytes = &v
	}
	if flagMaxDiff > 0 {
		v := flagMaxDiff
		job.MaxDiff = &v
	}
	if flagMetric != "" {
		job.Metric = pyjamaz.ParseMetric(flagMetric)
	}
	if len(flagFormats) > 0 {
		formats := make([]pyjamaz.Format, 0, len(flagFormats))
		for _, f := range flagFormats {
			if pf := pyjamaz.ParseFormat(strings.ToLower(f)); pf != pyjamaz.FormatUnknown {
				formats = append(formats, pf)
			}
		}
		if len(formats) > 0 {
			job.Formats = formats
		}
	}
	if flagMaxWidth > 0 {
		job.Transform.MaxWidth = flagMaxWidth
	}
	if flagMaxHeight > 0 {
		job.Transform.MaxHeight = flagMaxHeight
	}
	if flagSharpen > 0 {
		job.Transform.Sharpen = flagSharpen
	}
	if flagStripICC {
		job.Transform.StripICC = true
	}
}

func outputPathFor(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	outName := name + "_optimized" + ext

	if flagOutDir != "" {
		return filepath.Join(flagOutDir, outName)
	}
	return filepath.Join(filepath.Dir(input), outName)
}

func printResult(job pyjamaz.Job, result *pyjamaz.Result) {
	if result == nil {
		return
	}
	line := result.String()
	if result.Success {
		fmt.Println(color.GreenString(line))
	} else {
		fmt.Println(color.YellowString(line))
	}
}

func writeManifest(path string, jobs []pyjamaz.Job, results []pyjamaz.BatchResult) error {
	entries := make([]pyjamaz.ManifestEntry, 0, len(results))
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		entries = append(entries, r.Result.ToManifestEntry(r.Job))
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("pyjamaz: marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pyjamaz: write manifest %q: %w", path, err)
	}
	return nil
}

func exitCodeFor(err error) int {
	return int(pyjamaz.ClassifyError(err))
}

func worseExitLocal(a, b pyjamaz.ExitCode) pyjamaz.ExitCode {
	if a == pyjamaz.ExitSuccess {
		return b
	}
	if b == pyjamaz.ExitSuccess {
		return a
	}
	if b > a {
		return b
	}
	return a
}
