package toolserver

import (
	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
	"github.com/anatolykoptev/go_transcript/internal/engine/segments"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// --- transcript_fetch ---

type TranscriptFetchInput struct {
	Video          string `json:"video" jsonschema:"YouTube video id or URL (watch, youtu.be, shorts, embed, live)"`
	Lang           string `json:"lang,omitempty" jsonschema:"Caption language code (default: en)"`
	Method         string `json:"method,omitempty" jsonschema:"Preferred strategy tried first: intercept, innertube, direct, static, mirror, dom, lyrics, stt, or auto (default)"`
	Format         string `json:"format,omitempty" jsonschema:"Output format: segments (default), timestamped, plain"`
	NoCache        bool   `json:"no_cache,omitempty" jsonschema:"Skip the cache read and fetch fresh"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"Per-strategy timeout override in seconds; can only shorten a strategy's own limit"`
}

type TranscriptFetchOutput struct {
	VideoID  string               `json:"video_id"`
	Lang     string               `json:"lang"`
	Strategy string               `json:"strategy"`
	Count    int                  `json:"count"`
	Duration float64              `json:"duration_seconds"`
	Segments []transcript.Segment `json:"segments,omitempty"`
	Text     string               `json:"text,omitempty"`
	Attempts []transcript.Attempt `json:"attempts,omitempty"`
}

// --- transcript_strategies ---

type StrategiesInput struct{}

type StrategiesOutput struct {
	Strategies []transcript.StrategyInfo `json:"strategies"`
	Preferred  string                    `json:"preferred"`
	LLMModels  []string                  `json:"llm_models,omitempty"`
	CacheTTL   string                    `json:"cache_ttl"`
}

// --- segments_classify ---

type SegmentsClassifyInput struct {
	Video      string   `json:"video,omitempty" jsonschema:"YouTube video id or URL; optional when transcript is given"`
	Lang       string   `json:"lang,omitempty" jsonschema:"Transcript language (default: en)"`
	Transcript string   `json:"transcript,omitempty" jsonschema:"Raw caption payload (JSON3, VTT, TTML or timedtext XML) to classify instead of fetching"`
	Lyrics     string   `json:"lyrics,omitempty" jsonschema:"Optional song lyrics for music videos"`
	Comments   []string `json:"comments,omitempty" jsonschema:"Top comments used as extra context (fetched when empty and a video is given)"`
	NoCache    bool     `json:"no_cache,omitempty" jsonschema:"Ignore a cached classification"`
}

type SegmentsClassifyOutput struct {
	VideoID  string                       `json:"video_id,omitempty"`
	Segments []segments.ClassifiedSegment `json:"segments"`
}

// --- transcript_summary ---

type TranscriptSummaryInput struct {
	Video        string `json:"video" jsonschema:"YouTube video id or URL"`
	Lang         string `json:"lang,omitempty" jsonschema:"Transcript language (default: en)"`
	Length       string `json:"length,omitempty" jsonschema:"Summary length: short, medium (default), long"`
	Language     string `json:"language,omitempty" jsonschema:"Output language of the summary (default: English)"`
	Instructions string `json:"instructions,omitempty" jsonschema:"Custom task replacing the default summary instruction; results are not cached"`
	NoCache      bool   `json:"no_cache,omitempty" jsonschema:"Ignore a cached summary"`
}

type TranscriptSummaryOutput struct {
	VideoID  string `json:"video_id"`
	Length   string `json:"length"`
	Language string `json:"language"`
	Summary  string `json:"summary"`
}

// --- video_comments ---

type VideoCommentsInput struct {
	Video   string `json:"video" jsonschema:"YouTube video id or URL"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum comments to return (default: 20, max: 100)"`
	NoCache bool   `json:"no_cache,omitempty" jsonschema:"Ignore cached comments"`
}

type VideoCommentsOutput struct {
	VideoID  string            `json:"video_id"`
	Comments []sources.Comment `json:"comments"`
}

// --- pattern_hints ---

type PatternHintsInput struct {
	Text  string `json:"text,omitempty" jsonschema:"Transcript text to scan"`
	Video string `json:"video,omitempty" jsonschema:"Video id or URL whose transcript is scanned when text is empty"`
	Lang  string `json:"lang,omitempty" jsonschema:"Transcript language (default: en)"`
}

type PatternHintsOutput struct {
	Matches []segments.Match `json:"matches"`
	Hints   string           `json:"hints"`
}

// --- video_metadata ---

type VideoMetadataInput struct {
	Video string `json:"video" jsonschema:"YouTube video id or URL"`
}

type VideoMetadataOutput struct {
	Metadata *sources.VideoMetadata `json:"metadata"`
	IsMusic  bool                   `json:"is_music"`
}

// --- cache_clear ---

type CacheClearInput struct {
	Video string `json:"video,omitempty" jsonschema:"Video id or URL to clear; empty clears every video entry"`
}

type CacheClearOutput struct {
	Cleared string `json:"cleared"`
}

// --- history_list ---

type HistoryListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum entries to return (default: 20, max: 100)"`
}

type HistoryListOutput struct {
	Entries []cache.HistoryEntry `json:"entries"`
}
