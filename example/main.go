package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	gainctl "github.com/audiolane/gainctl"
)

func main() {
	// ── Graceful shutdown via signal ──────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Progress channel ──────────────────────────────────────────────────
	progressCh := make(chan gainctl.ProgressUpdate, 32)
	go func() {
		for upd := range progressCh {
			fmt.Printf("[%d/%d] %-10s %s  %s\n",
				upd.Index+1, upd.Total, upd.Stage, upd.File, upd.Message)
		}
	}()

	// ── Create processor ──────────────────────────────────────────────────
	processor, err := gainctl.New(gainctl.Config{
		Workers:    4,
		ProgressCh: progressCh,
	})
	if err != nil {
		log.Fatalf("failed to create processor: %v", err)
	}
	defer func() {
		close(progressCh)
		processor.Close()
	}()

	// ── Example 1: Measure loudness ──────────────────────────────────────
	fmt.Println("\n── Example 1: Measure Loudness ──")
	analyzeExample(ctx, processor)

	// ── Example 2: Preview a correction ──────────────────────────────────
	fmt.Println("\n── Example 2: Preview a Correction ──")
	previewExample(ctx, processor)

	// ── Example 3: Batch processing ──────────────────────────────────────
	fmt.Println("\n── Example 3: Batch Processing ──")
	batchExample(ctx, processor)
}

func analyzeExample(ctx context.Context, p *gainctl.Processor) {
	inputDir := os.Getenv("GAINCTL_INPUT")
	if inputDir == "" {
		inputDir = "/tmp/music"
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	results, err := p.Analyze(analyzeCtx, []string{inputDir}, true)
	if err != nil {
		fmt.Printf("analysis failed: %v\n", err)
		return
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s: FAILED: %v\n", r.File, r.Err)
			continue
		}
		fmt.Printf("%s\n  %s\n", r.File, r.Measurement)
	}
}

func previewExample(ctx context.Context, p *gainctl.Processor) {
	inputPath := os.Getenv("GAINCTL_TRACK")
	if inputPath == "" {
		inputPath = "/tmp/music/track1.wav"
	}

	result, err := p.Preview(ctx, gainctl.TargetLoudness(inputPath, -14.0), true)
	if err != nil {
		fmt.Printf("preview failed: %v\n", err)
		return
	}

	fmt.Printf("Before : %s\n", result.Before)
	fmt.Printf("Gain   : %+.1f dB (clamped: %v)\n", result.Resolved.AppliedGainDB, result.Resolved.Clamped)
	fmt.Printf("After  : %s\n", result.AfterPredicted)
}

func batchExample(ctx context.Context, p *gainctl.Processor) {
	inputDir := os.Getenv("GAINCTL_INPUT")
	if inputDir == "" {
		inputDir = "/tmp/music"
	}

	source := p.ConfigSource([]gainctl.GainRequest{
		gainctl.ExplicitGain("track1.wav", 3.0),
		gainctl.TargetLoudness("track2.wav", -16.0),
	})

	report, err := p.Process(ctx, []string{inputDir}, source, "/tmp/music-out",
		gainctl.WithFormat(gainctl.FormatFLAC),
		gainctl.WithHardClip(true),
		gainctl.WithWorkers(4),
	)
	if err != nil {
		fmt.Printf("batch failed to start: %v\n", err)
		return
	}

	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("%s: FAILED: %v\n", res.File, res.Err)
			continue
		}
		fmt.Printf("%s: %+.1f dB -> %s\n", res.File, res.Resolved.AppliedGainDB, res.OutputPath)
	}
	fmt.Printf("Batch complete: %d/%d succeeded\n", report.Succeeded, len(report.Results))
}
