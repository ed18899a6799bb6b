package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// Innertube transcript fetching.
// Primary:  /next → engagement panel → /get_transcript  (timed segments, works from datacenter IPs)
// Fallback: ANDROID /player → captionTracks → timedtext (works from non-blocked IPs)

const (
	ytBaseURL        = "https://www.youtube.com"
	ytWebVersion     = "2.20250222.10.00"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// playerResponse is shared by the /player endpoint and the watch page's
// ytInitialPlayerResponse.
type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []rawCaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID       string   `json:"videoId"`
		Title         string   `json:"title"`
		Author        string   `json:"author"`
		ChannelID     string   `json:"channelId"`
		LengthSeconds string   `json:"lengthSeconds"`
		Keywords      []string `json:"keywords"`
		ViewCount     string   `json:"viewCount"`
		ShortDesc     string   `json:"shortDescription"`
	} `json:"videoDetails"`
	Microformat *struct {
		PlayerMicroformatRenderer struct {
			Category    string `json:"category"`
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

type rawCaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// tracks returns the caption tracks, nil when the response has none.
func (p *playerResponse) tracks() []transcript.CaptionTrack {
	if p.Captions == nil {
		return nil
	}
	raw := p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	out := make([]transcript.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		out = append(out, transcript.CaptionTrack{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Kind:         t.Kind,
			Name:         t.Name.SimpleText,
		})
	}
	return out
}

// unavailable explains a response without captions.
func (p *playerResponse) unavailable() error {
	if p.PlayabilityStatus != nil && p.PlayabilityStatus.Reason != "" {
		return fmt.Errorf("%w: %s", transcript.ErrNoTracks, p.PlayabilityStatus.Reason)
	}
	return transcript.ErrNoTracks
}

// --- WEB client types (/next and /get_transcript endpoints) ---

type ytWebClientCtx struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	VisitorData   string `json:"visitorData,omitempty"`
	Hl            string `json:"hl,omitempty"`
	Gl            string `json:"gl,omitempty"`
}

func webClient(visitorData, lang string) ytWebClientCtx {
	return ytWebClientCtx{
		ClientName:    "WEB",
		ClientVersion: ytWebVersion,
		VisitorData:   visitorData,
		Hl:            lang,
		Gl:            "US",
	}
}

// nextPayload is the watch-next request body of videoID.
func nextPayload(videoID string, client ytWebClientCtx) map[string]any {
	return map[string]any{
		"videoId": videoID,
		"context": map[string]any{
			"client":  client,
			"user":    map[string]bool{"enableSafetyMode": false},
			"request": map[string]bool{"useSsl": true},
		},
	}
}

type ytGetTranscriptResp struct {
	Actions []struct {
		UpdateEngagementPanelAction *struct {
			Content struct {
				TranscriptRenderer struct {
					Content struct {
						TranscriptSearchPanelRenderer struct {
							Body struct {
								TranscriptSegmentListRenderer struct {
									InitialSegments []struct {
										TranscriptSegmentRenderer *struct {
											StartMs string `json:"startMs"`
											EndMs   string `json:"endMs"`
											Snippet struct {
												Runs []struct {
													Text string `json:"text"`
												} `json:"runs"`
											} `json:"snippet"`
										} `json:"transcriptSegmentRenderer"`
									} `json:"initialSegments"`
								} `json:"transcriptSegmentListRenderer"`
							} `json:"body"`
						} `json:"transcriptSearchPanelRenderer"`
					} `json:"content"`
				} `json:"transcriptRenderer"`
			} `json:"content"`
		} `json:"updateEngagementPanelAction"`
	} `json:"actions"`
}

// Innertube is the Direct-API strategy over YouTube's internal endpoints.
type Innertube struct {
	BaseURL string // https://www.youtube.com unless overridden
}

// NewInnertube creates the strategy against www.youtube.com.
func NewInnertube() *Innertube { return &Innertube{BaseURL: ytBaseURL} }

func (s *Innertube) Name() string  { return NameInnertube }
func (s *Innertube) Priority() int { return PriorityInnertube }

// Extract tries the engagement panel first, then the ANDROID player.
func (s *Innertube) Extract(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	segs, err := s.viaEngagementPanel(ctx, videoID, lang)
	if err == nil {
		return segs, nil
	}
	slog.Debug("innertube: engagement panel failed, trying player",
		slog.String("id", videoID), slog.Any("err", err))

	return s.viaPlayer(ctx, videoID, lang)
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in /next is URL-encoded; /get_transcript wants it raw.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptSegments converts a /get_transcript response into segments.
func parseTranscriptSegments(resp ytGetTranscriptResp) []transcript.Segment {
	var out []transcript.Segment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		items := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, item := range items {
			r := item.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				sb.WriteString(run.Text)
			}
			text := engine.CleanCaption(sb.String())
			if text == "" {
				continue
			}
			startMs, _ := strconv.ParseFloat(r.StartMs, 64)
			endMs, _ := strconv.ParseFloat(r.EndMs, 64)
			dur := (endMs - startMs) / 1000
			if dur < 0 {
				dur = 0
			}
			out = append(out, transcript.Segment{Start: startMs / 1000, Duration: dur, Text: text})
		}
	}
	return out
}

func (s *Innertube) viaEngagementPanel(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	visitorData := generateVisitorData()
	client := webClient(visitorData, lang)

	nextData, err := s.postWEB(ctx, "/youtubei/v1/next", nextPayload(videoID, client), visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	data, err := s.postWEB(ctx, "/youtubei/v1/get_transcript", map[string]any{
		"params":  token,
		"context": map[string]any{"client": client},
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var resp ytGetTranscriptResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	segs := parseTranscriptSegments(resp)
	if len(segs) == 0 {
		return nil, transcript.ErrEmptyTranscript
	}
	return segs, nil
}

func (s *Innertube) viaPlayer(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	player, err := s.player(ctx, videoID, lang)
	if err != nil {
		return nil, err
	}
	tracks := usableTracks(player.tracks())
	if len(tracks) == 0 {
		return nil, player.unavailable()
	}
	track, _ := transcript.SelectTrack(tracks, lang)
	return fetchCaptions(ctx, withFormat(track.BaseURL, "json3"), nil)
}

func (s *Innertube) player(ctx context.Context, videoID, lang string) (*playerResponse, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                lang,
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/youtubei/v1/player?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android player: %w", err)
	}
	defer resp.Body.Close()

	var pr playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 3*1024*1024)).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &pr, nil
}

// postWEB POSTs to an Innertube endpoint with WEB client headers.
func (s *Innertube) postWEB(ctx context.Context, path string, payload any, visitorData string) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path+"?prettyPrint=false", bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "*/*")
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("X-Youtube-Client-Name", "1")
		req.Header.Set("X-Youtube-Client-Version", ytWebVersion)
		req.Header.Set("X-Goog-Visitor-Id", visitorData)
		req.Header.Set("Origin", ytBaseURL)
		req.Header.Set("Referer", ytBaseURL+"/")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 3*1024*1024))
}

// generateVisitorData creates a random 11-char visitor ID for Innertube requests.
func generateVisitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))] //nolint:gosec // non-cryptographic use
	}
	return string(b)
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// usableTracks drops tracks that cannot be fetched server-side.
func usableTracks(tracks []transcript.CaptionTrack) []transcript.CaptionTrack {
	out := make([]transcript.CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			out = append(out, t)
		}
	}
	return out
}

// withFormat sets the fmt query parameter on a caption URL.
func withFormat(rawURL, format string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("fmt", format)
	u.RawQuery = q.Encode()
	return u.String()
}
