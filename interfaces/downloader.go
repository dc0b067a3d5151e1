package interfaces

import "context"

// Downloader fetches the media behind a video identifier into outputDir
// and returns the human-readable title.
type Downloader interface {
	Download(ctx context.Context, videoID, outputDir string) (string, error)
}
