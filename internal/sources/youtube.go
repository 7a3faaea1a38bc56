// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// youtubeEndpoint overrides the Data API root; empty means the library
// default. Tests point it at an httptest server.
var youtubeEndpoint = ""

// watchPageBase serves the watch page whose player response lists a
// video's caption tracks. Tests point it at an httptest server.
var watchPageBase = "https://www.youtube.com/watch"

const (
	defaultTranscriptConcurrency = 3
	defaultTranscriptRate        = 2.0

	maxWatchPageBytes = 8 << 20
)

var captionTracksMarker = []byte(`"captionTracks":`)

// YouTube finds videos with the Data API and loads their English
// transcripts. Videos without a retrievable transcript are skipped.
type YouTube struct {
	Client *http.Client
	APIKey string

	// Concurrency bounds parallel transcript fetches.
	Concurrency int
	// Rate is the sustained transcript requests per second.
	Rate float64

	Logger *zap.Logger
}

// Name returns the connector identifier.
func (y *YouTube) Name() types.SourceID { return types.SourceYouTube }

type videoCandidate struct {
	ID, Title, Channel string
}

// Fetch searches for videos and returns one document per video whose
// transcript could be loaded. A missing API key fails with AuthMissing
// before any request is made.
func (y *YouTube) Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	if y.APIKey == "" {
		return nil, fetchErr(types.SourceYouTube, KindAuthMissing, "YouTube API key is not configured")
	}
	if limit <= 0 {
		limit = 5
	}

	candidates, err := y.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return y.transcripts(ctx, candidates), nil
}

func (y *YouTube) search(ctx context.Context, query string, limit int) ([]videoCandidate, error) {
	base := y.Client
	if base == nil {
		base = http.DefaultClient
	}
	client := &http.Client{
		Timeout:   base.Timeout,
		Transport: &transport.APIKey{Key: y.APIKey, Transport: base.Transport},
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if youtubeEndpoint != "" {
		opts = append(opts, option.WithEndpoint(youtubeEndpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fetchErr(types.SourceYouTube, KindParse, "creating YouTube client: %w", err)
	}

	resp, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	var out []videoCandidate
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		c := videoCandidate{ID: item.Id.VideoId}
		if item.Snippet != nil {
			c.Title = html.UnescapeString(item.Snippet.Title)
			c.Channel = item.Snippet.ChannelTitle
		}
		out = append(out, c)
	}
	return out, nil
}

// classifyGoogleError maps a Data API error to a FetchError.
func classifyGoogleError(err error) *FetchError {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fetchErr(types.SourceYouTube, KindNetwork, "YouTube search: %w", err)
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return &FetchError{Source: types.SourceYouTube, Kind: KindRateLimited, Err: err}
		case "keyInvalid", "keyExpired", "forbidden":
			return &FetchError{Source: types.SourceYouTube, Kind: KindAuthMissing, Err: err}
		}
	}
	fe := statusError(types.SourceYouTube, gerr.Code)
	fe.Err = err
	return fe
}

// transcripts loads transcripts concurrently, bounded by Concurrency and
// Rate. Results keep candidate order.
func (y *YouTube) transcripts(ctx context.Context, candidates []videoCandidate) []types.RawDocument {
	logger := y.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := y.Concurrency
	if concurrency <= 0 {
		concurrency = defaultTranscriptConcurrency
	}
	r := y.Rate
	if r <= 0 {
		r = defaultTranscriptRate
	}
	limiter := rate.NewLimiter(rate.Limit(r), concurrency)

	texts := make([]string, len(candidates))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			text, err := y.transcript(ctx, c.ID)
			if err != nil {
				logger.Warn("skipping video",
					zap.String("source", string(types.SourceYouTube)),
					zap.String("video", c.ID),
					zap.Error(err))
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	var docs []types.RawDocument
	for i, c := range candidates {
		if texts[i] == "" {
			continue
		}
		docs = append(docs, types.RawDocument{
			Source: types.SourceYouTube,
			Text:   texts[i],
			Metadata: map[string]string{
				types.MetaKey:   c.ID,
				types.MetaTitle: c.Title,
				types.MetaURL:   "https://www.youtube.com/watch?v=" + c.ID,
				"channel":       c.Channel,
			},
		})
	}
	return docs
}

// captionTrack is one entry of the player response's captionTracks list.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// transcript fetches and flattens one video's English caption track. The
// track list comes from the watch page; the chosen track's baseUrl serves
// timedtext XML.
func (y *YouTube) transcript(ctx context.Context, videoID string) (string, error) {
	params := url.Values{"v": {videoID}, "hl": {"en"}}
	pageURL := watchPageBase + "?" + params.Encode()
	page, err := y.get(ctx, pageURL, maxWatchPageBytes)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return "", err
	}
	track, ok := englishTrack(tracks)
	if !ok {
		return "", fmt.Errorf("no English caption track among %d", len(tracks))
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing watch page URL: %w", err)
	}
	ref, err := url.Parse(track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing caption track URL: %w", err)
	}
	body, err := y.get(ctx, base.ResolveReference(ref).String(), maxWatchPageBytes)
	if err != nil {
		return "", fmt.Errorf("caption track: %w", err)
	}
	return flattenTimedText(body)
}

func (y *YouTube) get(ctx context.Context, u string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept-Language", "en")

	client := y.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// parseCaptionTracks extracts the captionTracks array embedded in a watch
// page's player response. A page without one has no captions.
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	i := bytes.Index(page, captionTracksMarker)
	if i < 0 {
		return nil, fmt.Errorf("video has no captions")
	}
	var tracks []captionTrack
	dec := json.NewDecoder(bytes.NewReader(page[i+len(captionTracksMarker):]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decoding caption tracks: %w", err)
	}
	return tracks, nil
}

// englishTrack prefers a manual English track over an auto-generated one.
func englishTrack(tracks []captionTrack) (captionTrack, bool) {
	var auto *captionTrack
	for i, t := range tracks {
		if t.BaseURL == "" {
			continue
		}
		if t.LanguageCode != "en" && !strings.HasPrefix(t.LanguageCode, "en-") {
			continue
		}
		if t.Kind != "asr" {
			return t, true
		}
		if auto == nil {
			auto = &tracks[i]
		}
	}
	if auto != nil {
		return *auto, true
	}
	return captionTrack{}, false
}

// flattenTimedText joins the cue text of a timedtext XML document.
func flattenTimedText(body []byte) (string, error) {
	var tr timedText
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&tr); err != nil {
		return "", fmt.Errorf("no transcript available: %w", err)
	}
	parts := make([]string, 0, len(tr.Lines))
	for _, l := range tr.Lines {
		// Caption text arrives entity-escaped twice.
		if s := collapseSpace(html.UnescapeString(l.Text)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("transcript is empty")
	}
	return strings.Join(parts, " "), nil
}

type timedText struct {
	Lines []struct {
		Start string `xml:"start,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}
