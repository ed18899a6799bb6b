package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// InfoSource supplies watch page metadata.
type InfoSource interface {
	VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error)
}

// Generator is a text completion backend; *engine.ModelChain satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt, modelHint string) (string, error)
}

// LyricsProvider looks up song lyrics.
type LyricsProvider interface {
	Lyrics(ctx context.Context, artist, title string) (string, error)
}

// ErrLyricsNotFound is returned when the provider has no match.
var ErrLyricsNotFound = errors.New("lyrics not found")

var musicTitleMarkers = []string{
	"official video",
	"official music video",
	"official audio",
	"lyric video",
	"lyrics",
}

// IsMusic applies the metadata heuristics for music videos.
func IsMusic(info *VideoInfo) bool {
	if info == nil {
		return false
	}
	if strings.EqualFold(info.Category, "Music") {
		return true
	}
	title := strings.ToLower(info.Title)
	for _, m := range musicTitleMarkers {
		if strings.Contains(title, m) {
			return true
		}
	}
	return strings.Contains(info.Author, "VEVO") || strings.HasSuffix(info.Author, " - Topic")
}

// Lyrics is the Lyrics-Lookup strategy: for music videos the lyrics stand in
// for the transcript as one untimed segment.
type Lyrics struct {
	info      InfoSource
	provider  LyricsProvider
	generator Generator // optional second opinion when heuristics say no
}

// NewLyrics creates the strategy; generator may be nil.
func NewLyrics(info InfoSource, provider LyricsProvider, generator Generator) *Lyrics {
	return &Lyrics{info: info, provider: provider, generator: generator}
}

func (s *Lyrics) Name() string  { return NameLyrics }
func (s *Lyrics) Priority() int { return PriorityLyrics }

func (s *Lyrics) Extract(ctx context.Context, videoID, _ string) ([]transcript.Segment, error) {
	info, err := s.info.VideoInfo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video info: %w", err)
	}
	if !IsMusic(info) && !s.classify(ctx, info) {
		return nil, transcript.ErrNotMusic
	}

	artist, title := SplitSongTitle(info.Title, info.Author)
	text, err := s.provider.Lyrics(ctx, artist, title)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrLyricsNotFound
	}
	return []transcript.Segment{{Start: 0, Duration: 0, Text: text}}, nil
}

// classify asks the generator; any failure counts as "not music".
func (s *Lyrics) classify(ctx context.Context, info *VideoInfo) bool {
	if s.generator == nil {
		return false
	}
	prompt := fmt.Sprintf(`Analyze this YouTube video metadata:
Title: %q
Channel: %q

Is this a music video (official music video, lyric video, or audio track)?
Return ONLY "true" or "false".`, info.Title, info.Author)
	out, err := s.generator.Generate(ctx, prompt, "")
	if err != nil {
		slog.Debug("lyrics: music classification failed", slog.Any("error", err))
		return false
	}
	return strings.EqualFold(strings.TrimSpace(out), "true")
}

var (
	titleNoiseRe   = regexp.MustCompile(`(?i)\s*[\(\[][^\)\]]*(official|lyric|audio|video|visualizer|hd|4k|remaster)[^\)\]]*[\)\]]`)
	titleFeatRe    = regexp.MustCompile(`(?i)\s+(ft\.?|feat\.?)\s+.*$`)
	channelNoiseRe = regexp.MustCompile(`(?i)(VEVO$|\s+-\s+Topic$|\s*Official$)`)
)

// SplitSongTitle derives artist and song from a video title such as
// "Artist - Song (Official Video)", falling back to the channel as artist.
func SplitSongTitle(videoTitle, channel string) (artist, title string) {
	t := titleNoiseRe.ReplaceAllString(videoTitle, "")
	if a, song, ok := strings.Cut(t, " - "); ok {
		artist, title = strings.TrimSpace(a), strings.TrimSpace(song)
	} else {
		artist = strings.TrimSpace(channelNoiseRe.ReplaceAllString(channel, ""))
		title = strings.TrimSpace(t)
	}
	title = strings.TrimSpace(titleFeatRe.ReplaceAllString(title, ""))
	return artist, title
}

// LRCLib queries the lrclib.net lyrics database.
type LRCLib struct {
	BaseURL string
}

// NewLRCLib creates a client for https://lrclib.net.
func NewLRCLib() *LRCLib { return &LRCLib{BaseURL: "https://lrclib.net"} }

type lrclibTrack struct {
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
	Instrumental bool   `json:"instrumental"`
}

// Lyrics tries the exact /api/get match, then the first /api/search hit.
func (l *LRCLib) Lyrics(ctx context.Context, artist, title string) (string, error) {
	headers := map[string]string{"User-Agent": engine.UserAgentBot, "Accept": "application/json"}

	q := url.Values{}
	q.Set("artist_name", artist)
	q.Set("track_name", title)
	if f, err := engine.FetchBytes(ctx, l.BaseURL+"/api/get?"+q.Encode(), headers); err == nil {
		var t lrclibTrack
		if json.Unmarshal(f.Body, &t) == nil && t.PlainLyrics != "" {
			return t.PlainLyrics, nil
		}
	}

	sq := url.Values{}
	sq.Set("q", strings.TrimSpace(artist+" "+title))
	f, err := engine.FetchBytes(ctx, l.BaseURL+"/api/search?"+sq.Encode(), headers)
	if err != nil {
		return "", fmt.Errorf("lrclib search: %w", err)
	}
	var hits []lrclibTrack
	if err := json.Unmarshal(f.Body, &hits); err != nil {
		return "", fmt.Errorf("lrclib search: %w", err)
	}
	for _, h := range hits {
		if h.PlainLyrics != "" && !h.Instrumental {
			return h.PlainLyrics, nil
		}
	}
	return "", ErrLyricsNotFound
}
