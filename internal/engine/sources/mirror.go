package sources

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

const (
	mirrorTranscriptTimeout = 8 * time.Second
	mirrorMetadataTimeout   = 5 * time.Second
	pipedDiscoveryTTL       = 5 * time.Minute
)

//go:embed mirrors.yaml
var defaultMirrorsYAML []byte

// MirrorList is the instance configuration of the mirror strategy.
type MirrorList struct {
	Invidious         []string `yaml:"invidious"`
	Piped             []string `yaml:"piped"`
	DiscoverPiped     bool     `yaml:"discover_piped"`
	PipedWiki         string   `yaml:"piped_wiki"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
}

// LoadMirrors reads a mirrors file; an empty path loads the built-in list.
func LoadMirrors(path string) (*MirrorList, error) {
	data := defaultMirrorsYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read mirrors file %s: %w", path, err)
		}
		data = b
	}
	var ml MirrorList
	if err := yaml.Unmarshal(data, &ml); err != nil {
		return nil, fmt.Errorf("parse mirrors file: %w", err)
	}
	if ml.RequestsPerSecond <= 0 {
		ml.RequestsPerSecond = 1
	}
	return &ml, nil
}

// VideoMetadata is the video description served by a mirror.
type VideoMetadata struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description,omitempty"` // markdown
	ViewCount     int64  `json:"viewCount,omitempty"`
	LengthSeconds int    `json:"lengthSeconds,omitempty"`
	Category      string `json:"category,omitempty"`
	Published     string `json:"published,omitempty"`
	Source        string `json:"source"`
}

// Mirror is the Third-Party-Proxy-API strategy: Invidious first, then Piped.
// Any instance failure moves on to the next instance.
type Mirror struct {
	list *MirrorList

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	pipedMu      sync.Mutex
	pipedFound   []string
	pipedFoundAt time.Time
}

// NewMirror creates the strategy over list.
func NewMirror(list *MirrorList) *Mirror {
	return &Mirror{list: list, limiters: make(map[string]*rate.Limiter)}
}

func (m *Mirror) Name() string  { return NameMirror }
func (m *Mirror) Priority() int { return PriorityMirror }

// Extract returns the first transcript any instance serves.
func (m *Mirror) Extract(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	var lastErr error
	for _, inst := range m.list.Invidious {
		segs, err := m.withTimeout(ctx, mirrorTranscriptTimeout, func(ctx context.Context) ([]transcript.Segment, error) {
			return m.invidiousTranscript(ctx, inst, videoID, lang)
		})
		if err == nil {
			return segs, nil
		}
		slog.Debug("mirror: invidious instance failed", slog.String("instance", inst), slog.Any("err", err))
		lastErr = err
	}
	for _, inst := range m.pipedInstances(ctx) {
		segs, err := m.withTimeout(ctx, mirrorTranscriptTimeout, func(ctx context.Context) ([]transcript.Segment, error) {
			return m.pipedTranscript(ctx, inst, videoID, lang)
		})
		if err == nil {
			return segs, nil
		}
		slog.Debug("mirror: piped instance failed", slog.String("instance", inst), slog.Any("err", err))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no mirror instances configured")
	}
	return nil, fmt.Errorf("all mirror instances failed: %w", lastErr)
}

// Metadata returns video metadata from the first instance that answers.
func (m *Mirror) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	var lastErr error
	for _, inst := range m.list.Invidious {
		mctx, cancel := context.WithTimeout(ctx, mirrorMetadataTimeout)
		md, err := m.invidiousMetadata(mctx, inst, videoID)
		cancel()
		if err == nil {
			return md, nil
		}
		lastErr = err
	}
	for _, inst := range m.pipedInstances(ctx) {
		mctx, cancel := context.WithTimeout(ctx, mirrorMetadataTimeout)
		md, err := m.pipedMetadata(mctx, inst, videoID)
		cancel()
		if err == nil {
			return md, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no mirror instances configured")
	}
	return nil, fmt.Errorf("metadata: %w", lastErr)
}

func (m *Mirror) withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) ([]transcript.Segment, error)) ([]transcript.Segment, error) {
	ictx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ictx)
}

// limiter returns the per-host limiter of rawURL.
func (m *Mirror) limiter(rawURL string) *rate.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(m.list.RequestsPerSecond), 2)
		m.limiters[host] = l
	}
	return l
}

// get waits for the host limiter, then fetches.
func (m *Mirror) get(ctx context.Context, rawURL string, headers map[string]string) (*engine.Fetched, error) {
	if err := m.limiter(rawURL).Wait(ctx); err != nil {
		return nil, err
	}
	return engine.FetchBytes(ctx, rawURL, headers)
}

func (m *Mirror) getJSON(ctx context.Context, rawURL string, out any) error {
	f, err := m.get(ctx, rawURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(f.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// --- Invidious ---

type invidiousVideo struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"descriptionHtml"`
	ViewCount       int64  `json:"viewCount"`
	LengthSeconds   int    `json:"lengthSeconds"`
	Genre           string `json:"genre"`
	PublishedText   string `json:"publishedText"`
	Captions        []struct {
		Label        string `json:"label"`
		LanguageCode string `json:"language_code"`
		URL          string `json:"url"`
	} `json:"captions"`
}

func (m *Mirror) invidiousTranscript(ctx context.Context, inst, videoID, lang string) ([]transcript.Segment, error) {
	var v invidiousVideo
	if err := m.getJSON(ctx, inst+"/api/v1/videos/"+videoID, &v); err != nil {
		return nil, err
	}
	if len(v.Captions) == 0 {
		return nil, transcript.ErrNoTracks
	}
	tracks := make([]transcript.CaptionTrack, len(v.Captions))
	for i, c := range v.Captions {
		t := transcript.CaptionTrack{BaseURL: c.URL, LanguageCode: c.LanguageCode, Name: c.Label}
		if strings.Contains(strings.ToLower(c.Label), "auto-generated") {
			t.Kind = "asr"
		}
		tracks[i] = t
	}
	track, _ := transcript.SelectTrack(tracks, lang)

	f, err := m.get(ctx, absoluteURL(inst, track.BaseURL), map[string]string{"Accept": "text/vtt"})
	if err != nil {
		return nil, err
	}
	segs := transcript.Parse("text/vtt", f.Body)
	if len(segs) == 0 {
		return nil, transcript.ErrEmptyTranscript
	}
	return segs, nil
}

func (m *Mirror) invidiousMetadata(ctx context.Context, inst, videoID string) (*VideoMetadata, error) {
	var v invidiousVideo
	if err := m.getJSON(ctx, inst+"/api/v1/videos/"+videoID, &v); err != nil {
		return nil, err
	}
	desc := v.Description
	if v.DescriptionHTML != "" {
		if md, err := htmltomarkdown.ConvertString(v.DescriptionHTML); err == nil {
			desc = strings.TrimSpace(md)
		}
	}
	return &VideoMetadata{
		VideoID:       videoID,
		Title:         v.Title,
		Author:        v.Author,
		Description:   desc,
		ViewCount:     v.ViewCount,
		LengthSeconds: v.LengthSeconds,
		Category:      v.Genre,
		Published:     v.PublishedText,
		Source:        inst,
	}, nil
}

// --- Piped ---

type pipedStreams struct {
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	Description string `json:"description"` // HTML
	Views       int64  `json:"views"`
	Duration    int    `json:"duration"`
	Category    string `json:"category"`
	UploadDate  string `json:"uploadDate"`
	Subtitles   []struct {
		URL           string `json:"url"`
		MimeType      string `json:"mimeType"`
		Name          string `json:"name"`
		Code          string `json:"code"`
		AutoGenerated bool   `json:"autoGenerated"`
	} `json:"subtitles"`
}

func (m *Mirror) pipedTranscript(ctx context.Context, inst, videoID, lang string) ([]transcript.Segment, error) {
	var s pipedStreams
	if err := m.getJSON(ctx, inst+"/streams/"+videoID, &s); err != nil {
		return nil, err
	}
	if len(s.Subtitles) == 0 {
		return nil, transcript.ErrNoTracks
	}
	tracks := make([]transcript.CaptionTrack, len(s.Subtitles))
	mime := make(map[string]string, len(s.Subtitles))
	for i, sub := range s.Subtitles {
		t := transcript.CaptionTrack{BaseURL: sub.URL, LanguageCode: sub.Code, Name: sub.Name}
		if sub.AutoGenerated {
			t.Kind = "asr"
		}
		tracks[i] = t
		mime[sub.URL] = sub.MimeType
	}
	track, _ := transcript.SelectTrack(tracks, lang)

	f, err := m.get(ctx, absoluteURL(inst, track.BaseURL), nil)
	if err != nil {
		return nil, err
	}
	segs := transcript.Parse(mime[track.BaseURL], f.Body)
	if len(segs) == 0 {
		return nil, transcript.ErrEmptyTranscript
	}
	return segs, nil
}

func (m *Mirror) pipedMetadata(ctx context.Context, inst, videoID string) (*VideoMetadata, error) {
	var s pipedStreams
	if err := m.getJSON(ctx, inst+"/streams/"+videoID, &s); err != nil {
		return nil, err
	}
	desc := s.Description
	if md, err := htmltomarkdown.ConvertString(s.Description); err == nil {
		desc = strings.TrimSpace(md)
	}
	return &VideoMetadata{
		VideoID:       videoID,
		Title:         s.Title,
		Author:        s.Uploader,
		Description:   desc,
		ViewCount:     s.Views,
		LengthSeconds: s.Duration,
		Category:      s.Category,
		Published:     s.UploadDate,
		Source:        inst,
	}, nil
}

// pipedWikiRowRe matches "| [name](https://api.example) |" table cells.
var pipedWikiRowRe = regexp.MustCompile(`\|\s*\[([^\]]+)\]\(([^)]+)\)\s*\|`)

// parsePipedWiki extracts API URLs from the Piped instances wiki page.
func parsePipedWiki(markdown string) []string {
	var out []string
	for _, line := range strings.Split(markdown, "\n") {
		m := pipedWikiRowRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		u := strings.TrimSpace(m[2])
		if strings.Contains(u, "pipedapi") || strings.Contains(u, "api-piped") || strings.Contains(u, "api.piped") {
			out = append(out, strings.TrimRight(u, "/"))
		}
	}
	return out
}

// pipedInstances returns the configured list, or the discovered one when
// discovery is on and succeeded within pipedDiscoveryTTL.
func (m *Mirror) pipedInstances(ctx context.Context) []string {
	if !m.list.DiscoverPiped || m.list.PipedWiki == "" {
		return m.list.Piped
	}
	m.pipedMu.Lock()
	defer m.pipedMu.Unlock()
	if len(m.pipedFound) > 0 && time.Since(m.pipedFoundAt) < pipedDiscoveryTTL {
		return m.pipedFound
	}
	dctx, cancel := context.WithTimeout(ctx, mirrorTranscriptTimeout)
	defer cancel()
	f, err := engine.FetchBytes(dctx, m.list.PipedWiki, nil)
	if err != nil {
		slog.Debug("mirror: piped discovery failed", slog.Any("err", err))
		return m.list.Piped
	}
	found := parsePipedWiki(string(f.Body))
	if len(found) == 0 {
		return m.list.Piped
	}
	m.pipedFound, m.pipedFoundAt = found, time.Now()
	return found
}

func absoluteURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
