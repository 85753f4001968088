package review

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// DefaultTimeout bounds one annotation command invocation.
const DefaultTimeout = 2 * time.Minute

// maxOutputTail limits how much command output an error carries.
const maxOutputTail = 2048

// CommandBridge runs external annotation commands. The upload command
// receives the dataset path and dataset name as arguments; the download
// command receives the dataset name and output path. Commands inherit
// the process environment, so platform credentials flow through
// untouched. Failed invocations are retried with exponential backoff.
type CommandBridge struct {
	uploadCommand   string
	downloadCommand string
	timeout         time.Duration
	logger          *slog.Logger
}

// CommandConfig configures the bridge.
type CommandConfig struct {
	UploadCommand   string
	DownloadCommand string
	Timeout         time.Duration
}

// NewCommandBridge creates a bridge from configuration.
func NewCommandBridge(cfg CommandConfig, logger *slog.Logger) (*CommandBridge, error) {
	if cfg.UploadCommand == "" || cfg.DownloadCommand == "" {
		return nil, scherr.New(scherr.KindConfiguration,
			"review bridge requires upload and download commands")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandBridge{
		uploadCommand:   cfg.UploadCommand,
		downloadCommand: cfg.DownloadCommand,
		timeout:         cfg.Timeout,
		logger:          logger,
	}, nil
}

// Upload submits the dataset file for review.
func (b *CommandBridge) Upload(ctx context.Context, datasetPath, datasetName string) error {
	return b.run(ctx, "upload", b.uploadCommand, datasetPath, datasetName)
}

// Download fetches the annotated dataset into outputPath.
func (b *CommandBridge) Download(ctx context.Context, datasetName, outputPath string) error {
	return b.run(ctx, "download", b.downloadCommand, datasetName, outputPath)
}

// run executes the command with retries per the external-error policy.
func (b *CommandBridge) run(ctx context.Context, op, command string, args ...string) error {
	behavior := scherr.DefaultBehaviors()[scherr.KindExternal]

	var lastErr error
	backoff := behavior.BaseBackoff
	for attempt := 0; attempt <= behavior.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			b.logger.Warn("retrying review command",
				"operation", op,
				"attempt", attempt+1,
				"error", lastErr)
		}

		err := b.runOnce(ctx, command, args...)
		if err == nil {
			b.logger.Info("review command succeeded", "operation", op, "command", command)
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func (b *CommandBridge) runOnce(ctx context.Context, command string, args ...string) error {
	cmdCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, command, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		tail := output.String()
		if len(tail) > maxOutputTail {
			tail = tail[len(tail)-maxOutputTail:]
		}
		return scherr.Wrap(scherr.KindExternal,
			fmt.Sprintf("review command %q failed: %s", command, strings.TrimSpace(tail)), err)
	}

	return nil
}
