package resolver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/pyrooka/mail2mp3/config"
	er "github.com/pyrooka/mail2mp3/internal/errors"
	"github.com/pyrooka/mail2mp3/internal/tracing"
)

const (
	feedEntryGeneralVideos = "generalvideos"
	actionTypeYoutubePlay  = "youtubeplay"
)

var (
	shareURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`shazam\.com/track/\d+#`), // long-form track URL
		regexp.MustCompile(`shz\.am/t\d+`),           // short link
	}
	trackIDPattern = regexp.MustCompile(`\d+`)
)

// ShazamResolver translates a Shazam share link found in free text into a
// YouTube video id through the two-hop discovery API.
type ShazamResolver struct {
	discoveryURL string
	httpClient   *http.Client
}

func NewShazamResolver(cfg *config.ResolverConfig) *ShazamResolver {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ShazamResolver{
		discoveryURL: cfg.ShazamDiscoveryURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type discoveryResponse struct {
	Feed []struct {
		ID      string `json:"id"`
		Actions []struct {
			Type string `json:"type"`
			Href string `json:"href"`
		} `json:"actions"`
	} `json:"feed"`
}

type videoResponse struct {
	Youtube struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	} `json:"youtube"`
}

// Lookup scans text for a share link and resolves it to a video id.
// Any failure along the chain is returned as an error for the caller to
// log; none of them is fatal to the pipeline.
func (r *ShazamResolver) Lookup(ctx context.Context, text string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ShazamResolver.Lookup")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	trackID, err := extractTrackID(text)
	if err != nil {
		return "", err
	}
	span.LogFields(tracingLog.String("track_id", trackID))

	videoURL, err := r.discoverVideoURL(ctx, trackID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	videoID, err := r.fetchVideoID(ctx, videoURL)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	return videoID, nil
}

// extractTrackID finds the first share-link shape in text and pulls the
// numeric track id out of it.
func extractTrackID(text string) (string, error) {
	var shareURL string
	for _, pattern := range shareURLPatterns {
		if match := pattern.FindString(text); match != "" {
			shareURL = match
			break
		}
	}
	if shareURL == "" {
		return "", er.ErrNoShareLink
	}

	trackID := trackIDPattern.FindString(shareURL)
	if trackID == "" {
		return "", er.ErrNoShareLink
	}

	return trackID, nil
}

// discoverVideoURL is hop 1: the discovery endpoint lists feed entries,
// one of which carries a youtubeplay action with the hop-2 URL.
func (r *ShazamResolver) discoverVideoURL(ctx context.Context, trackID string) (string, error) {
	body, err := r.get(ctx, r.discoveryURL+trackID)
	if err != nil {
		return "", errors.Wrap(err, "discovery request failed")
	}

	var discovery discoveryResponse
	if err := json.Unmarshal(body, &discovery); err != nil {
		return "", errors.Wrap(err, "cannot parse discovery response")
	}

	for _, feed := range discovery.Feed {
		if feed.ID != feedEntryGeneralVideos {
			continue
		}
		for _, action := range feed.Actions {
			if action.Type == actionTypeYoutubePlay && action.Href != "" {
				return action.Href, nil
			}
		}
	}

	return "", errors.Wrap(er.ErrVideoNotFound, "no youtubeplay action in discovery feed")
}

// fetchVideoID is hop 2: the video endpoint carries the id directly.
func (r *ShazamResolver) fetchVideoID(ctx context.Context, videoURL string) (string, error) {
	body, err := r.get(ctx, videoURL)
	if err != nil {
		return "", errors.Wrap(err, "video request failed")
	}

	var video videoResponse
	if err := json.Unmarshal(body, &video); err != nil {
		return "", errors.Wrap(err, "cannot parse video response")
	}

	if len(video.Youtube.Videos) == 0 || video.Youtube.Videos[0].ID == "" {
		return "", errors.Wrap(er.ErrVideoNotFound, "video response has no youtube videos")
	}

	return video.Youtube.Videos[0].ID, nil
}

func (r *ShazamResolver) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(er.ErrLookupRejected, "status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
