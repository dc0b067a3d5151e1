package dto

import (
	"github.com/pyrooka/mail2mp3/internal/enum"
)

// ResolutionResult carries the resolved video identifier and its provenance.
// A zero VideoID means the message was unresolvable.
type ResolutionResult struct {
	Source  enum.ShareSource
	VideoID string
}

func (r ResolutionResult) Found() bool {
	return r.VideoID != ""
}

func NotFound() ResolutionResult {
	return ResolutionResult{Source: enum.ShareSourceNone}
}

func ResolvedFromYouTube(videoID string) ResolutionResult {
	return ResolutionResult{Source: enum.ShareSourceYouTube, VideoID: videoID}
}

func ResolvedFromShazam(videoID string) ResolutionResult {
	return ResolutionResult{Source: enum.ShareSourceShazam, VideoID: videoID}
}
