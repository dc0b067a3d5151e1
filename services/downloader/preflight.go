package downloader

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pyrooka/mail2mp3/config"
	er "github.com/pyrooka/mail2mp3/internal/errors"
)

// Preflight verifies that yt-dlp and ffmpeg/ffprobe are runnable before
// the pipeline starts. A download-capable collaborator missing at startup
// is fatal, not something to discover on the first job.
func Preflight(ctx context.Context, cfg *config.DownloaderConfig) error {
	binary := "yt-dlp"
	if cfg != nil && cfg.Binary != "" {
		binary = cfg.Binary
	}

	if err := probe(ctx, binary, "--version"); err != nil {
		return errors.Wrapf(er.ErrDownloaderNotFound, "%q: %v", binary, err)
	}

	ffmpeg := "ffmpeg"
	ffprobe := "ffprobe"
	if cfg != nil && cfg.FFmpegLocation != "" {
		ffmpeg = filepath.Join(cfg.FFmpegLocation, "ffmpeg")
		ffprobe = filepath.Join(cfg.FFmpegLocation, "ffprobe")
	}

	if err := probe(ctx, ffmpeg, "-version"); err != nil {
		return errors.Wrapf(er.ErrFFmpegNotFound, "%q: %v", ffmpeg, err)
	}
	if err := probe(ctx, ffprobe, "-version"); err != nil {
		return errors.Wrapf(er.ErrFFmpegNotFound, "%q: %v", ffprobe, err)
	}

	return nil
}

func probe(ctx context.Context, binary string, arg string) error {
	cmd := commandContext(ctx, binary, arg)
	return cmd.Run()
}
