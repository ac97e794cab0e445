package pyjamaz

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus.Logger configured the way cmd/pyjamaz and the
// batch layer expect: text formatting with full timestamps to stderr, level
// adjustable by the caller.
func NewLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// logResult writes one structured line per completed Job, in the
// WithField-chain style this engine's ambient stack follows throughout.
func logResult(log *logrus.Entry, job Job, result *Result, err error) {
	if log == nil {
		return
	}
	if err != nil {
		log.WithError(err).WithField("input", job.InputPath).Warn("pyjamaz: job failed")
		return
	}

	entry := log.WithField("input", job.InputPath).
		WithField("success", result.Success).
		WithField("decode_ms", result.Timings.Decode.Seconds()*1000).
		WithField("encode_ms", result.Timings.Encode.Seconds()*1000)

	if result.Selected != nil {
		entry = entry.WithField("format", result.Selected.Format.String()).
			WithField("bytes", result.Selected.FileSize).
			WithField("diff", result.Selected.DiffScore)
	}
	if len(result.Warnings) > 0 {
		entry = entry.WithField("warnings", len(result.Warnings))
	}

	entry.Info("pyjamaz: job complete")
}
