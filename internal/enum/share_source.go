package enum

// ShareSource records which resolution strategy produced a video ID.
type ShareSource string

const (
	ShareSourceYouTube ShareSource = "youtube"
	ShareSourceShazam  ShareSource = "shazam"
	ShareSourceNone    ShareSource = "none"
)

func (t ShareSource) String() string {
	return string(t)
}
