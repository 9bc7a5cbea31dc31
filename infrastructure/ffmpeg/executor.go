package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	pkgerrors "github.com/audiolane/gainctl/pkg/errors"
	"github.com/audiolane/gainctl/pkg/logger"
)

// Executor implements ports.FFmpegExecutor
type Executor struct {
	ffmpegPath  string
	ffprobePath string
	log         *logger.Logger
}

// ExecutorConfig holds configuration for the FFmpeg executor
type ExecutorConfig struct {
	FFmpegPath  string
	FFprobePath string
	Logger      *logger.Logger
}

// NewExecutor creates a new FFmpeg executor, resolving binaries from PATH
// when paths are not configured
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		var err error
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
	}

	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		var err error
		ffprobePath, err = exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
		}
	}

	log := cfg.Logger
	if log == nil {
		log, _ = logger.New(false)
	}

	return &Executor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log,
	}, nil
}

// Execute runs ffmpeg with the given arguments, discarding output
func (e *Executor) Execute(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Debug("executing ffmpeg",
		zap.Strings("args", args),
	)

	if err := cmd.Run(); err != nil {
		return pkgerrors.NewFFmpegError(
			"ffmpeg execution failed",
			args,
			exitCode(err),
			stderr.String(),
			err,
		)
	}

	return nil
}

// Analyze runs ffmpeg with the given arguments and returns its stderr, where
// the ebur128 and loudnorm filters print their measurements
func (e *Executor) Analyze(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Debug("running ffmpeg analysis",
		zap.Strings("args", args),
	)

	if err := cmd.Run(); err != nil {
		return nil, pkgerrors.NewFFmpegError(
			"ffmpeg analysis failed",
			args,
			exitCode(err),
			stderr.String(),
			err,
		)
	}

	return stderr.Bytes(), nil
}

// Probe runs ffprobe and returns JSON output
func (e *Executor) Probe(ctx context.Context, inputPath string) ([]byte, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, pkgerrors.NewFFmpegError(
			"ffprobe execution failed",
			args,
			exitCode(err),
			stderr.String(),
			err,
		)
	}

	return stdout.Bytes(), nil
}

func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
