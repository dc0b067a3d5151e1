package errors

import "github.com/pkg/errors"

var (
	// startup errors
	ErrMailCredentialsMissing = errors.New("mailbox username or password is missing")
	ErrDownloaderNotFound     = errors.New("yt-dlp binary not found")
	ErrFFmpegNotFound         = errors.New("ffmpeg not found")

	// resolution errors
	ErrNoShareLink    = errors.New("no share link found in text")
	ErrVideoNotFound  = errors.New("no video id found")
	ErrLookupRejected = errors.New("lookup endpoint returned non-200 status")

	// pipeline errors
	ErrQueueClosed = errors.New("job queue is closed")
)
