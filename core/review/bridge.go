// Package review bridges generated datasets to an external human review
// tool. The bridge shells out to configured annotation commands rather
// than speaking any review platform's API directly, so the platform can
// change without touching the pipeline.
package review

import (
	"context"
)

// Uploader submits a dataset file for human review under a dataset name.
type Uploader interface {
	Upload(ctx context.Context, datasetPath, datasetName string) error
}

// Downloader fetches the annotated dataset back to a local file.
type Downloader interface {
	Download(ctx context.Context, datasetName, outputPath string) error
}

// Bridge is the full review round trip.
type Bridge interface {
	Uploader
	Downloader
}
