package review

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	scherr "github.com/adalundhe/scholar/core/errors"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script failed: %v", err)
	}
	return path
}

func TestCommandBridgeUpload(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "uploaded")
	script := writeScript(t, "upload.sh", `echo "$1 $2" > `+marker)

	bridge, err := NewCommandBridge(CommandConfig{
		UploadCommand:   script,
		DownloadCommand: script,
	}, nil)
	if err != nil {
		t.Fatalf("NewCommandBridge failed: %v", err)
	}

	if err := bridge.Upload(context.Background(), "/data/set.jsonl", "review_set"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if string(data) != "/data/set.jsonl review_set\n" {
		t.Errorf("arguments passed wrong: %q", data)
	}
}

func TestCommandBridgeDownloadArgs(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "downloaded")
	script := writeScript(t, "download.sh", `echo "$1 $2" > `+marker)

	bridge, err := NewCommandBridge(CommandConfig{
		UploadCommand:   script,
		DownloadCommand: script,
	}, nil)
	if err != nil {
		t.Fatalf("NewCommandBridge failed: %v", err)
	}

	if err := bridge.Download(context.Background(), "review_set", "/out/enhanced.jsonl"); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if string(data) != "review_set /out/enhanced.jsonl\n" {
		t.Errorf("arguments passed wrong: %q", data)
	}
}

func TestCommandBridgeRetriesTransientFailure(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "first_attempt")
	// Fails once, then succeeds.
	script := writeScript(t, "flaky.sh",
		`if [ ! -f `+marker+` ]; then touch `+marker+`; echo "transient" >&2; exit 1; fi`)

	bridge, err := NewCommandBridge(CommandConfig{
		UploadCommand:   script,
		DownloadCommand: script,
	}, nil)
	if err != nil {
		t.Fatalf("NewCommandBridge failed: %v", err)
	}

	if err := bridge.Upload(context.Background(), "a", "b"); err != nil {
		t.Fatalf("transient failure should recover: %v", err)
	}
}

func TestCommandBridgeFailureCarriesOutput(t *testing.T) {
	script := writeScript(t, "fail.sh", `echo "credentials rejected" >&2; exit 3`)

	bridge, err := NewCommandBridge(CommandConfig{
		UploadCommand:   script,
		DownloadCommand: script,
		Timeout:         5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewCommandBridge failed: %v", err)
	}

	err = bridge.Upload(context.Background(), "a", "b")
	if err == nil {
		t.Fatal("expected failure")
	}
	if scherr.GetKind(err) != scherr.KindExternal {
		t.Errorf("kind: %v", scherr.GetKind(err))
	}
	if !scherr.IsRetryable(err) {
		t.Error("bridge failures should be retryable")
	}
	if got := err.Error(); !strings.Contains(got, "credentials rejected") {
		t.Errorf("error missing command output: %s", got)
	}
}

func TestCommandBridgeRequiresCommands(t *testing.T) {
	_, err := NewCommandBridge(CommandConfig{}, nil)
	if err == nil || scherr.GetKind(err) != scherr.KindConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}
