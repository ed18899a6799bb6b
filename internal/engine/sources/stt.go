package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/lrstanley/go-ytdlp"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// DefaultSTTTimeout covers an audio download plus a Whisper round trip.
const DefaultSTTTimeout = 10 * time.Minute

// AudioSource downloads a video's audio track to a local file.
type AudioSource interface {
	Download(ctx context.Context, videoID string) (path string, err error)
}

// Transcriber turns an audio file into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, path, lang string) ([]transcript.Segment, error)
}

// STT is the Speech-to-Text strategy of last resort.
type STT struct {
	audio       AudioSource
	transcriber Transcriber
	timeout     time.Duration
}

// NewSTT creates the strategy. Either dependency may be nil, in which case
// Extract fails at once.
func NewSTT(audio AudioSource, t Transcriber) *STT {
	return &STT{audio: audio, transcriber: t, timeout: DefaultSTTTimeout}
}

func (s *STT) Name() string           { return NameSTT }
func (s *STT) Priority() int          { return PrioritySTT }
func (s *STT) Timeout() time.Duration { return s.timeout }

func (s *STT) Extract(ctx context.Context, videoID, lang string) ([]transcript.Segment, error) {
	if s.audio == nil || s.transcriber == nil {
		return nil, errors.New("speech-to-text is not configured")
	}
	path, err := s.audio.Download(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("stt: remove audio failed", slog.String("path", path), slog.Any("error", err))
		}
	}()

	segs, err := s.transcriber.Transcribe(ctx, path, lang)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return segs, nil
}

// YTDLPAudio downloads audio with yt-dlp into a cache directory.
type YTDLPAudio struct {
	Dir string
}

// NewYTDLPAudio stores downloads under the XDG cache home.
func NewYTDLPAudio() *YTDLPAudio {
	return &YTDLPAudio{Dir: filepath.Join(xdg.CacheHome, "go_transcript", "audio")}
}

// Download fetches the best audio stream and converts it to mp3.
func (a *YTDLPAudio) Download(ctx context.Context, videoID string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0750); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	dl := ytdlp.New().
		Format("bestaudio").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("10"). // smallest file; speech survives
		NoPlaylist().
		Output(filepath.Join(a.Dir, "%(id)s.%(ext)s"))

	result, err := dl.Run(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = strings.TrimSpace(result.Stderr)
		}
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, stderr)
	}
	return filepath.Join(a.Dir, videoID+".mp3"), nil
}

// Whisper transcribes with the OpenAI audio API.
type Whisper struct {
	client openai.Client
}

// NewWhisper creates a Whisper transcriber for apiKey.
func NewWhisper(apiKey string, opts ...option.RequestOption) *Whisper {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Whisper{client: openai.NewClient(opts...)}
}

// whisperVerbose is the verbose_json body; only segments are read from it.
type whisperVerbose struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the file and returns Whisper's segments, or one segment
// with the whole text when the response carries none.
func (w *Whisper) Transcribe(ctx context.Context, path, lang string) ([]transcript.Segment, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from our own cache dir
	if err != nil {
		return nil, err
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModelWhisper1,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if lang != "" {
		params.Language = openai.String(lang)
	}
	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return whisperSegments(resp.RawJSON(), resp.Text), nil
}

func whisperSegments(raw, text string) []transcript.Segment {
	var v whisperVerbose
	if raw != "" && json.Unmarshal([]byte(raw), &v) == nil && len(v.Segments) > 0 {
		out := make([]transcript.Segment, 0, len(v.Segments))
		for _, s := range v.Segments {
			t := strings.TrimSpace(s.Text)
			if t == "" {
				continue
			}
			out = append(out, transcript.Segment{Start: s.Start, Duration: max(s.End-s.Start, 0), Text: t})
		}
		if len(out) > 0 {
			return out
		}
	}
	if strings.TrimSpace(text) == "" {
		text = v.Text
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []transcript.Segment{{Start: 0, Duration: 0, Text: strings.TrimSpace(text)}}
}
