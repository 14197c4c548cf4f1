package main

import (
	"os"
	"runtime"
	"strconv"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// config holds the command line parameters
type config struct {
	// files to analyse
	files []string
	// chunkFrames is the number of frames fed to each Ingest; 0 feeds the
	// whole file at once
	chunkFrames int
	// jobs is the number of files analysed at once
	jobs int
	// verbose enables debug logging
	verbose bool
	// jsonOutput prints one JSON object per file
	jsonOutput bool
	// noShortcut disables shortcut downsampling
	noShortcut bool
	// logLevel is read from KEYFINDER_LOG_LEVEL
	logLevel logging.Level
}

// newZeroConfig returns the defaults, with environment overrides applied
func newZeroConfig() config {
	cfg := config{
		chunkFrames: 0,
		jobs:        runtime.NumCPU(),
		logLevel:    logging.WarnLevel,
	}

	if level, ok := logging.ParseLevel(os.Getenv("KEYFINDER_LOG_LEVEL")); ok {
		cfg.logLevel = level
	}
	if jobs, err := strconv.Atoi(os.Getenv("KEYFINDER_JOBS")); err == nil && jobs > 0 {
		cfg.jobs = jobs
	}

	return cfg
}

func (cfg *config) validate() error {
	if len(cfg.files) == 0 {
		return errors.New("no input files")
	}
	if cfg.chunkFrames < 0 {
		return errors.Errorf("chunk size must be >= 0, got %d", cfg.chunkFrames)
	}
	if cfg.jobs < 1 {
		return errors.Errorf("jobs must be > 0, got %d", cfg.jobs)
	}
	return nil
}
