// Package toolserver exposes the transcript service as MCP tools.
package toolserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/app"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 9

// RegisterTools registers every transcript tool on the given MCP server:
// transcript_fetch, transcript_strategies, segments_classify,
// transcript_summary, pattern_hints, video_metadata, video_comments,
// cache_clear, history_list.
func RegisterTools(server *mcp.Server, a *app.App) {
	t := New(a)
	registerTranscriptFetch(server, t)
	registerStrategies(server, t)
	registerSegmentsClassify(server, t)
	registerTranscriptSummary(server, t)
	registerPatternHints(server, t)
	registerVideoMetadata(server, t)
	registerVideoComments(server, t)
	registerCacheClear(server, t)
	registerHistoryList(server, t)
}

func registerTranscriptFetch(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_fetch",
		Description: "Fetch the transcript of a YouTube video. Tries extraction strategies in priority order (intercepted captions, InnerTube API, timedtext endpoint, watch page, Invidious/Piped mirrors, live page panel, lyrics for music videos, speech-to-text) until one returns segments. Results are cached. Output as timed segments, timestamped text, or plain text.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscriptFetchInput) (*mcp.CallToolResult, TranscriptFetchOutput, error) {
		out, err := t.Fetch(ctx, input)
		if err != nil {
			return nil, TranscriptFetchOutput{}, err
		}
		return nil, out, nil
	})
}

func registerStrategies(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_strategies",
		Description: "List the registered transcript extraction strategies with their priorities, in the order they are tried.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input StrategiesInput) (*mcp.CallToolResult, StrategiesOutput, error) {
		return nil, t.Strategies(), nil
	})
}

func registerSegmentsClassify(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "segments_classify",
		Description: "Split a video's timeline into labelled segments (sponsor, self-promotion, interaction reminder, intro, outro, preview, filler, highlight, music off-topic, content). Uses an LLM with regex pattern hints; gaps between labelled parts are filled with content segments so the timeline is covered end to end.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SegmentsClassifyInput) (*mcp.CallToolResult, SegmentsClassifyOutput, error) {
		out, err := t.Classify(ctx, input)
		if err != nil {
			return nil, SegmentsClassifyOutput{}, err
		}
		return nil, out, nil
	})
}

func registerTranscriptSummary(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_summary",
		Description: "Summarize a YouTube video from its transcript and metadata as markdown. Length short, medium or long; output language selectable; optional custom instructions. Requires an LLM key.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscriptSummaryInput) (*mcp.CallToolResult, TranscriptSummaryOutput, error) {
		out, err := t.Summary(ctx, input)
		if err != nil {
			return nil, TranscriptSummaryOutput{}, err
		}
		return nil, out, nil
	})
}

func registerVideoComments(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_comments",
		Description: "Get the top-level comments of a YouTube video (author, text, likes, publish time, creator flag, reply count). Uses the InnerTube API with Invidious/Piped as fallback.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoCommentsInput) (*mcp.CallToolResult, VideoCommentsOutput, error) {
		out, err := t.Comments(ctx, input)
		if err != nil {
			return nil, VideoCommentsOutput{}, err
		}
		return nil, out, nil
	})
}

func registerPatternHints(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "pattern_hints",
		Description: "Scan transcript text for sponsor reads, self-promotion, like/subscribe reminders, intros, outros, previews, filler and hooks. Returns every matched phrase and a compact hint block.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input PatternHintsInput) (*mcp.CallToolResult, PatternHintsOutput, error) {
		out, err := t.Hints(ctx, input)
		if err != nil {
			return nil, PatternHintsOutput{}, err
		}
		return nil, out, nil
	})
}

func registerVideoMetadata(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_metadata",
		Description: "Get title, channel, description (markdown), views, length, category and publish date of a YouTube video, and whether it looks like a music video.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoMetadataInput) (*mcp.CallToolResult, VideoMetadataOutput, error) {
		out, err := t.Metadata(ctx, input)
		if err != nil {
			return nil, VideoMetadataOutput{}, err
		}
		return nil, out, nil
	})
}

func registerCacheClear(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "cache_clear",
		Description: "Remove cached transcripts, metadata, classifications, summaries and comments for one video, or for every video when no video is given.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CacheClearInput) (*mcp.CallToolResult, CacheClearOutput, error) {
		out, err := t.ClearCache(ctx, input)
		if err != nil {
			return nil, CacheClearOutput{}, err
		}
		return nil, out, nil
	})
}

func registerHistoryList(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "history_list",
		Description: "List recently fetched videos, newest first, with the language, the strategy that succeeded and the segment count.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input HistoryListInput) (*mcp.CallToolResult, HistoryListOutput, error) {
		out, err := t.History(ctx, input)
		if err != nil {
			return nil, HistoryListOutput{}, err
		}
		return nil, out, nil
	})
}
