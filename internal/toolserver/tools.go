package toolserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/app"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/cache"
	"github.com/anatolykoptev/go_transcript/internal/engine/segments"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/engine/summary"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxCommentLimit     = 100
)

// Tools implements the tool operations over an App. The MCP handlers and the
// CLI both call it.
type Tools struct {
	app *app.App
}

// New creates Tools over a.
func New(a *app.App) *Tools { return &Tools{app: a} }

func parseVideo(video string) (string, error) {
	id, ok := transcript.ParseVideoID(video)
	if !ok {
		return "", fmt.Errorf("%w: %q", transcript.ErrInvalidVideoID, video)
	}
	return id, nil
}

// Fetch returns a transcript in the requested format.
func (t *Tools) Fetch(ctx context.Context, in TranscriptFetchInput) (TranscriptFetchOutput, error) {
	if in.Video == "" {
		return TranscriptFetchOutput{}, errors.New("video is required")
	}
	videoID, err := parseVideo(in.Video)
	if err != nil {
		return TranscriptFetchOutput{}, err
	}
	if err := t.checkMethod(in.Method); err != nil {
		return TranscriptFetchOutput{}, err
	}
	lang := toolutil.NormLang(in.Lang)

	res, err := t.app.Service.Fetch(ctx, videoID, lang, transcript.Options{
		Method:  toolutil.NormMethod(in.Method),
		Timeout: time.Duration(in.TimeoutSeconds) * time.Second,
		NoCache: in.NoCache,
	})
	if err != nil {
		return TranscriptFetchOutput{}, toolutil.UserError("transcript", err)
	}

	out := TranscriptFetchOutput{
		VideoID:  videoID,
		Lang:     lang,
		Strategy: res.Strategy,
		Count:    len(res.Segments),
		Duration: transcript.TotalDuration(res.Segments),
		Attempts: res.Attempts,
	}
	switch in.Format {
	case "", transcript.FormatSegments:
		out.Segments = res.Segments
	default:
		out.Text = transcript.Format(res.Segments, in.Format)
	}
	return out, nil
}

// checkMethod rejects a requested strategy that is not registered.
func (t *Tools) checkMethod(method string) error {
	if method == "" || strings.EqualFold(method, "auto") || t.app.Service.Manager().Has(method) {
		return nil
	}
	return fmt.Errorf("%w: %q", transcript.ErrUnknownStrategy, method)
}

// Strategies lists the registered strategies in default order, with the LLM
// fallback chain and the cache freshness window.
func (t *Tools) Strategies() StrategiesOutput {
	out := StrategiesOutput{
		Strategies: t.app.Service.Manager().Strategies(),
		Preferred:  engine.Cfg.PreferredMethod,
	}
	if t.app.LLM != nil {
		out.LLMModels = t.app.LLM.Models()
	}
	if t.app.Cache != nil {
		out.CacheTTL = t.app.Cache.TTL().String()
	}
	return out
}

// Classify labels the transcript of a video and fills the gaps. With a raw
// transcript the video is optional and the result is not cached.
func (t *Tools) Classify(ctx context.Context, in SegmentsClassifyInput) (SegmentsClassifyOutput, error) {
	if t.app.Classifier == nil {
		return SegmentsClassifyOutput{}, errors.New("segment classification needs LLM_API_KEY")
	}
	var videoID string
	switch {
	case in.Video != "":
		id, err := parseVideo(in.Video)
		if err != nil {
			return SegmentsClassifyOutput{}, err
		}
		videoID = id
	case in.Transcript == "":
		return SegmentsClassifyOutput{}, errors.New("video or transcript is required")
	}
	lang := toolutil.NormLang(in.Lang)
	cacheable := videoID != "" && in.Transcript == ""
	key := cache.Key(videoID, cache.KindSegments+"_"+lang)
	if cacheable && !in.NoCache {
		if segs, ok := toolutil.CacheLoadJSON[[]segments.ClassifiedSegment](ctx, t.app.Cache, key); ok {
			return SegmentsClassifyOutput{VideoID: videoID, Segments: segs}, nil
		}
	}

	var tr []transcript.Segment
	if in.Transcript != "" {
		tr = transcript.Parse("", []byte(in.Transcript))
		if len(tr) == 0 {
			return SegmentsClassifyOutput{}, errors.New("transcript payload could not be parsed")
		}
	} else {
		res, err := t.app.Service.Fetch(ctx, videoID, lang, transcript.Options{Method: toolutil.NormMethod("")})
		if err != nil {
			return SegmentsClassifyOutput{}, toolutil.UserError("transcript", err)
		}
		tr = res.Segments
	}

	req := segments.Request{Transcript: tr, Lyrics: in.Lyrics, Comments: in.Comments}
	if videoID != "" {
		if md, err := t.metadata(ctx, videoID); err == nil {
			req.Metadata = segments.Metadata{Title: md.Title, Author: md.Author, Description: md.Description}
		} else {
			slog.Debug("classify: metadata unavailable", slog.String("video", videoID), slog.Any("error", err))
		}
		if len(req.Comments) == 0 && t.app.Comments != nil {
			if cs, err := t.comments(ctx, videoID, sources.DefaultCommentLimit, false); err == nil {
				req.Comments = sources.CommentTexts(cs)
			} else {
				slog.Debug("classify: comments unavailable", slog.String("video", videoID), slog.Any("error", err))
			}
		}
	}

	segs, err := t.app.Classifier.Classify(ctx, req)
	if err != nil {
		return SegmentsClassifyOutput{}, toolutil.UserError("classify", err)
	}
	if cacheable {
		toolutil.CacheStoreJSON(ctx, t.app.Cache, key, segs)
	}
	return SegmentsClassifyOutput{VideoID: videoID, Segments: segs}, nil
}

// Summary returns a markdown summary of a video's transcript. Summaries with
// custom instructions are not cached.
func (t *Tools) Summary(ctx context.Context, in TranscriptSummaryInput) (TranscriptSummaryOutput, error) {
	if t.app.Summarizer == nil {
		return TranscriptSummaryOutput{}, errors.New("summaries need LLM_API_KEY")
	}
	videoID, err := parseVideo(in.Video)
	if err != nil {
		return TranscriptSummaryOutput{}, err
	}
	length, err := summary.NormalizeLength(in.Length)
	if err != nil {
		return TranscriptSummaryOutput{}, err
	}
	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = "English"
	}
	lang := toolutil.NormLang(in.Lang)
	out := TranscriptSummaryOutput{VideoID: videoID, Length: length, Language: language}

	cacheable := strings.TrimSpace(in.Instructions) == ""
	key := cache.Key(videoID, cache.KindSummary) + "_" + lang + "_" + length + "_" + strings.ToLower(language)
	if cacheable && !in.NoCache {
		if text, ok := toolutil.CacheLoadJSON[string](ctx, t.app.Cache, key); ok && text != "" {
			out.Summary = text
			return out, nil
		}
	}

	res, err := t.app.Service.Fetch(ctx, videoID, lang, transcript.Options{Method: toolutil.NormMethod("")})
	if err != nil {
		return TranscriptSummaryOutput{}, toolutil.UserError("transcript", err)
	}
	req := summary.Request{
		Transcript:   res.Segments,
		Length:       length,
		Language:     language,
		Instructions: in.Instructions,
	}
	if md, err := t.metadata(ctx, videoID); err == nil {
		req.Metadata = segments.Metadata{Title: md.Title, Author: md.Author, Description: md.Description}
	} else {
		slog.Debug("summary: metadata unavailable", slog.String("video", videoID), slog.Any("error", err))
	}

	text, err := t.app.Summarizer.Summarize(ctx, req)
	if err != nil {
		return TranscriptSummaryOutput{}, toolutil.UserError("summary", err)
	}
	if cacheable {
		toolutil.CacheStoreJSON(ctx, t.app.Cache, key, text)
	}
	out.Summary = text
	return out, nil
}

// Comments returns the top-level comments of a video.
func (t *Tools) Comments(ctx context.Context, in VideoCommentsInput) (VideoCommentsOutput, error) {
	videoID, err := parseVideo(in.Video)
	if err != nil {
		return VideoCommentsOutput{}, err
	}
	if t.app.Comments == nil {
		return VideoCommentsOutput{}, errors.New("no comment source configured")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = sources.DefaultCommentLimit
	}
	limit = min(limit, maxCommentLimit)
	cs, err := t.comments(ctx, videoID, limit, in.NoCache)
	if err != nil {
		return VideoCommentsOutput{}, toolutil.UserError("comments", err)
	}
	return VideoCommentsOutput{VideoID: videoID, Comments: cs}, nil
}

// comments serves from the cache when it holds at least limit comments.
func (t *Tools) comments(ctx context.Context, videoID string, limit int, noCache bool) ([]sources.Comment, error) {
	key := cache.Key(videoID, cache.KindComments)
	if !noCache {
		if cs, ok := toolutil.CacheLoadJSON[[]sources.Comment](ctx, t.app.Cache, key); ok && len(cs) >= limit {
			return cs[:limit], nil
		}
	}
	cs, err := t.app.Comments.Comments(ctx, videoID, limit)
	if err != nil {
		return nil, err
	}
	toolutil.CacheStoreJSON(ctx, t.app.Cache, key, cs)
	return cs, nil
}

// Hints runs the pattern detectors over text, or over a fetched transcript.
func (t *Tools) Hints(ctx context.Context, in PatternHintsInput) (PatternHintsOutput, error) {
	text := in.Text
	if text == "" {
		if in.Video == "" {
			return PatternHintsOutput{}, errors.New("text or video is required")
		}
		out, err := t.Fetch(ctx, TranscriptFetchInput{Video: in.Video, Lang: in.Lang, Format: transcript.FormatPlain})
		if err != nil {
			return PatternHintsOutput{}, err
		}
		text = out.Text
	}
	matches := segments.Detect(text)
	if matches == nil {
		matches = []segments.Match{}
	}
	return PatternHintsOutput{Matches: matches, Hints: segments.BuildHints(matches)}, nil
}

// Metadata returns cached or freshly fetched video metadata.
func (t *Tools) Metadata(ctx context.Context, in VideoMetadataInput) (VideoMetadataOutput, error) {
	videoID, err := parseVideo(in.Video)
	if err != nil {
		return VideoMetadataOutput{}, err
	}
	md, err := t.metadata(ctx, videoID)
	if err != nil {
		return VideoMetadataOutput{}, toolutil.UserError("metadata", err)
	}
	info := &sources.VideoInfo{Title: md.Title, Author: md.Author, Category: md.Category}
	return VideoMetadataOutput{Metadata: md, IsMusic: sources.IsMusic(info)}, nil
}

// metadata tries the cache, the mirrors, then the watch page.
func (t *Tools) metadata(ctx context.Context, videoID string) (*sources.VideoMetadata, error) {
	key := cache.Key(videoID, cache.KindMetadata)
	if md, ok := toolutil.CacheLoadJSON[*sources.VideoMetadata](ctx, t.app.Cache, key); ok && md != nil {
		return md, nil
	}

	md, err := t.app.Mirror.Metadata(ctx, videoID)
	if err != nil {
		info, infoErr := t.app.Static.VideoInfo(ctx, videoID)
		if infoErr != nil {
			return nil, errors.Join(err, infoErr)
		}
		md = &sources.VideoMetadata{
			VideoID:       videoID,
			Title:         info.Title,
			Author:        info.Author,
			Description:   info.Description,
			ViewCount:     info.ViewCount,
			LengthSeconds: info.LengthSeconds,
			Category:      info.Category,
			Published:     info.PublishDate,
			Source:        "watch page",
		}
	}
	toolutil.CacheStoreJSON(ctx, t.app.Cache, key, md)
	return md, nil
}

// ClearCache removes one video's entries, or every video entry.
func (t *Tools) ClearCache(ctx context.Context, in CacheClearInput) (CacheClearOutput, error) {
	if in.Video == "" {
		if err := t.app.Cache.ClearAll(ctx); err != nil {
			return CacheClearOutput{}, err
		}
		return CacheClearOutput{Cleared: "all"}, nil
	}
	videoID, err := parseVideo(in.Video)
	if err != nil {
		return CacheClearOutput{}, err
	}
	if err := t.app.Cache.ClearVideo(ctx, videoID); err != nil {
		return CacheClearOutput{}, err
	}
	return CacheClearOutput{Cleared: videoID}, nil
}

// History lists recently fetched videos, newest first.
func (t *Tools) History(ctx context.Context, in HistoryListInput) (HistoryListOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	entries, err := t.app.History.List(ctx, limit)
	if err != nil {
		return HistoryListOutput{}, err
	}
	if entries == nil {
		entries = []cache.HistoryEntry{}
	}
	return HistoryListOutput{Entries: entries}, nil
}
