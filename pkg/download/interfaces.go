//go:generate mockgen -destination=mocks/download.go . Fetcher
package download

import (
	"context"
	"net/url"
)

// Fetcher downloads remote build inputs into a local cache directory.
type Fetcher interface {
	// Fetch downloads item into dir and returns the absolute local path.
	// A cached file that still matches item.Checksum is reused.
	Fetch(ctx context.Context, item Item, dir string) (string, error)
}

// Item is one remote file.
type Item struct {
	URL      *url.URL // source URL
	Checksum string   // optional hex-encoded SHA-256; verified when set
	Filename string   // optional file name; derived from the URL when empty
}
