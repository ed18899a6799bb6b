package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// ytInitialPlayerResponseMarker precedes the player response JSON in watch page scripts.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse"

// VideoInfo is the metadata embedded in the watch page.
type VideoInfo struct {
	VideoID       string   `json:"videoId"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ChannelID     string   `json:"channelId,omitempty"`
	Category      string   `json:"category,omitempty"`
	LengthSeconds int      `json:"lengthSeconds,omitempty"`
	ViewCount     int64    `json:"viewCount,omitempty"`
	PublishDate   string   `json:"publishDate,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// Static parses the watch page's embedded player response.
type Static struct {
	BaseURL string
}

// NewStatic creates the strategy against www.youtube.com.
func NewStatic() *Static { return &Static{BaseURL: ytBaseURL} }

func (s *Static) Name() string  { return NameStatic }
func (s *Static) Priority() int { return PriorityStatic }

// Extract selects a caption track from the watch page and fetches it,
// preferring json3.
func (s *Static) Extract(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	pr, err := s.playerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	all := pr.tracks()
	if len(all) == 0 {
		return nil, pr.unavailable()
	}
	tracks := usableTracks(all)
	if len(tracks) == 0 {
		return nil, errors.New("all caption tracks require PoToken")
	}
	track, _ := transcript.SelectTrack(tracks, lang)

	segs, err := fetchCaptions(ctx, withFormat(track.BaseURL, "json3"), nil)
	if err == nil {
		return segs, nil
	}
	// Some tracks reject fmt overrides; the bare URL serves srv1 XML.
	return fetchCaptions(ctx, track.BaseURL, nil)
}

// VideoInfo returns the watch page metadata of videoID.
func (s *Static) VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	pr, err := s.playerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if pr.VideoDetails == nil {
		return nil, errors.New("videoDetails missing from watch page")
	}
	d := pr.VideoDetails
	info := &VideoInfo{
		VideoID:     videoID,
		Title:       d.Title,
		Author:      d.Author,
		ChannelID:   d.ChannelID,
		Keywords:    d.Keywords,
		Description: d.ShortDesc,
	}
	info.LengthSeconds, _ = strconv.Atoi(d.LengthSeconds)
	info.ViewCount, _ = strconv.ParseInt(d.ViewCount, 10, 64)
	if pr.Microformat != nil {
		info.Category = pr.Microformat.PlayerMicroformatRenderer.Category
		info.PublishDate = pr.Microformat.PlayerMicroformatRenderer.PublishDate
	}
	return info, nil
}

func (s *Static) playerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	page, err := s.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	raw, err := findPlayerResponse(page)
	if err != nil {
		return nil, err
	}
	var pr playerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &pr, nil
}

// fetchWatchPage prefers the stealth browser client: the watch page is the
// endpoint most sensitive to non-browser TLS fingerprints.
func (s *Static) fetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	watchURL := s.BaseURL + "/watch?v=" + videoID + "&hl=en"

	if bc := engine.Cfg.BrowserClient; bc != nil {
		headers := engine.ChromeHeaders()
		headers["accept-language"] = "en-US,en;q=0.9"
		data, err := engine.RetryDo(ctx, engine.DefaultRetryConfig, func() ([]byte, error) {
			d, _, status, err := bc.Do("GET", watchURL, headers, nil)
			if err != nil {
				return nil, err
			}
			if status != 200 {
				return nil, engine.StatusError(status, "")
			}
			return d, nil
		})
		if err == nil {
			return data, nil
		}
	}

	f, err := engine.FetchBytes(ctx, watchURL, map[string]string{
		"User-Agent": engine.RandomUserAgent(),
		"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return nil, err
	}
	return f.Body, nil
}

// findPlayerResponse scans inline scripts for the player response assignment
// and returns its balanced JSON object.
func findPlayerResponse(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}
	var found []byte
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		idx := strings.Index(text, ytInitialPlayerResponseMarker)
		if idx < 0 {
			return true
		}
		rest := text[idx+len(ytInitialPlayerResponseMarker):]
		brace := strings.IndexByte(rest, '{')
		if brace < 0 {
			return true
		}
		// Only "= {" or "\"] = {" style assignments, not later references.
		if gap := strings.TrimSpace(rest[:brace]); gap != "=" && !strings.HasSuffix(gap, "=") {
			return true
		}
		found = extractJSON([]byte(rest[brace:]))
		return found == nil
	})
	if found == nil {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	return found, nil
}

// extractJSON returns the balanced JSON object at the start of b.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
