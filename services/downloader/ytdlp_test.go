package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrooka/mail2mp3/config"
)

func TestNewCLIDefaults(t *testing.T) {
	cli := NewCLI(nil)
	assert.Equal(t, "yt-dlp", cli.binary)
	assert.Equal(t, "mp3", cli.audioFormat)
	assert.Equal(t, "320K", cli.audioQuality)
}

func TestNewCLIFromConfig(t *testing.T) {
	cli := NewCLI(&config.DownloaderConfig{
		Binary:         "/opt/yt-dlp",
		FFmpegLocation: "/opt/ffmpeg",
		AudioFormat:    "opus",
		AudioQuality:   "128K",
	})
	assert.Equal(t, "/opt/yt-dlp", cli.binary)
	assert.Equal(t, "/opt/ffmpeg", cli.ffmpegLocation)
	assert.Equal(t, "opus", cli.audioFormat)
	assert.Equal(t, "128K", cli.audioQuality)
}

func TestNewCLIWithBinaryOption(t *testing.T) {
	cli := NewCLI(nil, WithBinary("/usr/local/bin/yt-dlp"))
	assert.Equal(t, "/usr/local/bin/yt-dlp", cli.binary)
}

func TestCLIDownloadRequiresVideoID(t *testing.T) {
	cli := NewCLI(nil)
	_, err := cli.Download(context.Background(), "", "/tmp")
	assert.Error(t, err)
}

func TestCLIDownloadRequiresOutputDir(t *testing.T) {
	cli := NewCLI(nil)
	_, err := cli.Download(context.Background(), "dQw4w9WgXcQ", "")
	assert.Error(t, err)
}

func TestCLIDownloadBuildsArgs(t *testing.T) {
	var capturedArgs []string
	setHelperCommand(t, "success", &capturedArgs)

	cli := NewCLI(&config.DownloaderConfig{FFmpegLocation: "/opt/ffmpeg"})
	outputDir := t.TempDir()

	_, err := cli.Download(context.Background(), "dQw4w9WgXcQ", outputDir)
	require.NoError(t, err)
	require.NotEmpty(t, capturedArgs)

	assert.Contains(t, capturedArgs, "--extract-audio")
	assertFlagValue(t, capturedArgs, "--audio-format", "mp3")
	assertFlagValue(t, capturedArgs, "--audio-quality", "320K")
	assertFlagValue(t, capturedArgs, "--output", filepath.Join(outputDir, "%(title)s.%(ext)s"))
	assertFlagValue(t, capturedArgs, "--ffmpeg-location", "/opt/ffmpeg")
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", capturedArgs[len(capturedArgs)-1])
}

func TestCLIDownloadOmitsFFmpegLocationByDefault(t *testing.T) {
	var capturedArgs []string
	setHelperCommand(t, "success", &capturedArgs)

	cli := NewCLI(nil)
	_, err := cli.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir())
	require.NoError(t, err)
	assert.NotContains(t, capturedArgs, "--ffmpeg-location")
}

func TestCLIDownloadReturnsTitle(t *testing.T) {
	setHelperCommand(t, "success", nil)

	cli := NewCLI(nil)
	title, err := cli.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Some Video Title", title)
}

func TestCLIDownloadFallbackTitle(t *testing.T) {
	setHelperCommand(t, "silent", nil)

	cli := NewCLI(nil)
	title, err := cli.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Unknown title", title)
}

func TestCLIDownloadFailure(t *testing.T) {
	setHelperCommand(t, "failure", nil)

	cli := NewCLI(nil)
	_, err := cli.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir())
	assert.Error(t, err)
}

func setHelperCommand(t *testing.T, mode string, capturedArgs *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if capturedArgs != nil {
			*capturedArgs = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("YTDLP_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("YTDLP_HELPER_MODE") {
	case "success":
		fmt.Println("Some Video Title")
		os.Exit(0)
	case "silent":
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "ERROR: video unavailable")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func assertFlagValue(t *testing.T, args []string, flag, want string) {
	t.Helper()
	for i, arg := range args {
		if arg == flag {
			require.Less(t, i+1, len(args), "%s has no value", flag)
			assert.Equal(t, want, args[i+1])
			return
		}
	}
	t.Fatalf("expected args to include %s, got %v", flag, args)
}
