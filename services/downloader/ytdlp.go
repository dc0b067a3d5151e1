package downloader

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pyrooka/mail2mp3/config"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithFFmpegLocation points yt-dlp at a non-PATH ffmpeg install.
func WithFFmpegLocation(location string) Option {
	return func(c *CLI) {
		c.ffmpegLocation = location
	}
}

// CLI wraps the yt-dlp command-line downloader.
type CLI struct {
	binary         string
	ffmpegLocation string
	audioFormat    string
	audioQuality   string
}

// NewCLI constructs a CLI client from config defaults.
func NewCLI(cfg *config.DownloaderConfig, opts ...Option) *CLI {
	cli := &CLI{
		binary:       "yt-dlp",
		audioFormat:  "mp3",
		audioQuality: "320K",
	}
	if cfg != nil {
		if cfg.Binary != "" {
			cli.binary = cfg.Binary
		}
		if cfg.AudioFormat != "" {
			cli.audioFormat = cfg.AudioFormat
		}
		if cfg.AudioQuality != "" {
			cli.audioQuality = cfg.AudioQuality
		}
		cli.ffmpegLocation = cfg.FFmpegLocation
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Download fetches the best audio stream for videoID, extracts it to the
// configured audio format under outputDir, and returns the video title.
func (c *CLI) Download(ctx context.Context, videoID, outputDir string) (string, error) {
	if videoID == "" {
		return "", errors.New("video id required")
	}
	if outputDir == "" {
		return "", errors.New("output directory required")
	}

	args := []string{
		"--quiet",
		"--no-warnings",
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", c.audioFormat,
		"--audio-quality", c.audioQuality,
		"--output", filepath.Join(outputDir, "%(title)s.%(ext)s"),
		"--no-simulate",
		"--print", "after_move:title",
	}
	if c.ffmpegLocation != "" {
		args = append(args, "--ffmpeg-location", c.ffmpegLocation)
	}
	args = append(args, watchURLPrefix+videoID)

	cmd := commandContext(ctx, c.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start yt-dlp: %w", err)
	}

	// The only expected stdout line is the printed title.
	var title string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			title = line
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read yt-dlp output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("yt-dlp download failed: %w", err)
	}

	if title == "" {
		title = "Unknown title"
	}
	return title, nil
}
