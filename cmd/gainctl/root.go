package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gainctl "github.com/audiolane/gainctl"
	"github.com/audiolane/gainctl/pkg/logger"
	"github.com/audiolane/gainctl/pkg/progress"
)

var (
	debugMode   bool
	ffmpegPath  string
	ffprobePath string
	workers     int
	showProg    bool
)

var rootCmd = &cobra.Command{
	Use:     "gainctl",
	Short:   "EBU R128 loudness measurement and batch gain correction",
	Version: version,
	Long: `gainctl measures audio loudness per EBU R128 and applies gain
corrections in batch.

It supports:
  - Integrated, momentary, short-term loudness and true peak measurement
  - Explicit gain in dB or normalization to a target integrated loudness
  - Batch descriptors in CSV or JSON, or an interactive per-file prompt
  - Hard clipping at -0.3 dBFS applied after gain
  - Export to wav, ogg, flac or mp3 via ffmpeg`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", "", "Path to ffmpeg binary (default: search PATH)")
	rootCmd.PersistentFlags().StringVar(&ffprobePath, "ffprobe", "", "Path to ffprobe binary (default: search PATH)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 1, "Parallel batch workers")
	rootCmd.PersistentFlags().BoolVar(&showProg, "progress", false, "Print per-stage progress")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(processCmd)
}

// newProcessor builds the shared Processor from persistent flags. The
// returned cleanup stops the progress drain and flushes the logger.
func newProcessor() (*gainctl.Processor, func(), error) {
	log, err := logger.New(debugMode)
	if err != nil {
		return nil, nil, err
	}

	cfg := gainctl.Config{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		Logger:      log,
		Workers:     workers,
	}

	var progCh chan progress.Update
	done := make(chan struct{})
	if showProg {
		progCh = make(chan progress.Update, 64)
		cfg.ProgressCh = progCh
		go func() {
			defer close(done)
			w := progress.NewWriterReporter(os.Stderr)
			for u := range progCh {
				w.Report(u)
			}
		}()
	} else {
		close(done)
	}

	p, err := gainctl.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if progCh != nil {
			close(progCh)
			<-done
		}
		p.Close()
	}
	return p, cleanup, nil
}
