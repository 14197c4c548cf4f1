package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/integrii/flaggy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/tonal"
	"github.com/RyanBlaney/sonido-keyfinder/keyfinder"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
	"github.com/RyanBlaney/sonido-keyfinder/transcode"
)

// AppName is the app name
const AppName = "keyfinder"

// AppDesc is the app description
const AppDesc = "Estimate the musical key of audio files"

var version = "unknown"

// result is the outcome of analysing one file
type result struct {
	File     string    `json:"file"`
	Key      tonal.Key `json:"key"`
	Elapsed  float64   `json:"elapsed_ms"`
	Error    string    `json:"error,omitempty"`
	hasError bool
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := newZeroConfig()
	doFlags(&cfg)

	logger := logging.NewDefaultLogger()
	logger.SetLevel(cfg.logLevel)
	if cfg.verbose {
		logger.SetLevel(logging.DebugLevel)
	}
	logging.SetGlobalLogger(logger)

	chk(cfg.validate(), "invalid arguments")

	kfConfig := keyfinder.DefaultConfig()
	kfConfig.ShortcutDownsample = !cfg.noShortcut
	kfConfig.Logger = logger

	kf, err := keyfinder.NewKeyFinder(kfConfig)
	chk(err, "failed to create key finder")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	results := analyseAll(ctx, kf, transcode.NewDecoder(nil), &cfg)

	failed := false
	for _, r := range results {
		failed = failed || r.hasError
		if cfg.jsonOutput {
			line, err := json.Marshal(r)
			chk(err, "failed to encode result")
			fmt.Println(string(line))
			continue
		}
		if r.hasError {
			fmt.Fprintf(os.Stderr, "%s\terror: %s\n", r.File, r.Error)
			continue
		}
		fmt.Printf("%s\t%s\n", r.File, r.Key)
	}

	if failed {
		os.Exit(1)
	}
}

func doFlags(cfg *config) {
	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version
	parser.AdditionalHelpAppend = "\nfiles may also be given with -f or after --"

	var first string
	parser.AddPositionalValue(&first, "file", 1, false, "audio file to analyse")

	parser.StringSlice(&cfg.files, "f", "file", "audio file to analyse (repeatable)")
	parser.Int(&cfg.chunkFrames, "c", "chunk", "frames per ingest (0 for the whole file)")
	parser.Int(&cfg.jobs, "p", "parallel", "files analysed at once")
	parser.Bool(&cfg.verbose, "v", "verbose", "debug logging")
	parser.Bool(&cfg.jsonOutput, "j", "json", "print one JSON object per file")
	parser.Bool(&cfg.noShortcut, "ns", "no-shortcut", "filter every sample before downsampling")

	chk(parser.Parse(), "failed to parse arguments")

	if first != "" {
		cfg.files = append([]string{first}, cfg.files...)
	}
	cfg.files = append(cfg.files, parser.TrailingArguments...)
}

// analyseAll analyses every file, at most cfg.jobs at a time, and returns the
// results in input order
func analyseAll(ctx context.Context, kf *keyfinder.KeyFinder, decoder *transcode.Decoder, cfg *config) []result {
	results := make([]result, len(cfg.files))
	slots := make(chan struct{}, cfg.jobs)

	var wg sync.WaitGroup
	for i, file := range cfg.files {
		wg.Add(1)
		go func() {
			defer wg.Done()

			slots <- struct{}{}
			defer func() { <-slots }()

			start := time.Now()
			key, err := analyse(ctx, kf, decoder, file, cfg.chunkFrames)
			results[i] = result{
				File:    file,
				Key:     key,
				Elapsed: float64(time.Since(start).Microseconds()) / 1000.0,
			}
			if err != nil {
				logging.Error(err, "analysis failed", logging.Fields{"file": file})
				results[i].Error = err.Error()
				results[i].hasError = true
			}
		}()
	}
	wg.Wait()

	return results
}

// analyse estimates the key of one file, streaming WAV input in chunks when
// chunkFrames is set
func analyse(ctx context.Context, kf *keyfinder.KeyFinder, decoder *transcode.Decoder, file string, chunkFrames int) (tonal.Key, error) {
	if chunkFrames == 0 || !transcode.IsWAV(file) {
		audio, err := decoder.DecodeFile(ctx, file)
		if err != nil {
			return tonal.Silence, err
		}
		return kf.KeyOfAudio(audio)
	}

	r, err := transcode.OpenWAV(file)
	if err != nil {
		return tonal.Silence, err
	}
	defer r.Close()

	session := keyfinder.NewSession()
	for {
		if err := ctx.Err(); err != nil {
			return tonal.Silence, errors.Wrap(err, "analysis interrupted")
		}
		chunk, err := r.ReadChunk(chunkFrames)
		if err == io.EOF {
			break
		}
		if err != nil {
			return tonal.Silence, err
		}
		if err := kf.Ingest(session, chunk); err != nil {
			return tonal.Silence, err
		}
	}
	return kf.Finish(session)
}

func chk(err error, wrap string) {
	if err != nil {
		logging.Fatal(err, wrap)
	}
}
