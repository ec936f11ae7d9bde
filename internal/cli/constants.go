package cli

import "time"

// Default values for CLI flags and configurations.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxDescriptionLength is the maximum length of a scenario description to display.
	MaxDescriptionLength = 60
	// SnapshotTimeFormat names snapshot archives of failed scenarios.
	SnapshotTimeFormat = "20060102-150405"
	// DownloadTimeout bounds the download of a remote inputs archive.
	DownloadTimeout = 10 * time.Minute
)
