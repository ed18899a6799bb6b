package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	DefaultCommentLimit = 20
	maxCommentPages     = 5
)

// ErrNoComments means the video has comments disabled or none were found.
var ErrNoComments = errors.New("no comments available")

// Comment is one top-level comment of a video.
type Comment struct {
	Author     string `json:"author"`
	Text       string `json:"text"`
	Likes      string `json:"likes,omitempty"`
	Published  string `json:"published,omitempty"`
	IsCreator  bool   `json:"isCreator,omitempty"`
	ReplyCount int    `json:"replyCount,omitempty"`
}

// CommentSource fetches up to limit top-level comments of a video.
type CommentSource interface {
	Comments(ctx context.Context, videoID string, limit int) ([]Comment, error)
}

// CommentChain tries each source in order and returns the first non-empty result.
type CommentChain []CommentSource

func (c CommentChain) Comments(ctx context.Context, videoID string, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	lastErr := ErrNoComments
	for _, src := range c {
		if src == nil {
			continue
		}
		out, err := src.Comments(ctx, videoID, limit)
		if err == nil && len(out) > 0 {
			return out, nil
		}
		if err != nil {
			slog.Debug("comments: source failed", slog.String("video", videoID), slog.Any("err", err))
			lastErr = err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// CommentTexts flattens comments for prompt context.
func CommentTexts(comments []Comment) []string {
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if t := strings.TrimSpace(c.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// --- InnerTube ---

const commentSectionID = `"sectionIdentifier":"comment-item-section"`

var continuationTokenRE = regexp.MustCompile(`"continuationCommand":\{"token":"([^"]+)"`)

// Comments walks the watch-next comment continuation of videoID.
func (s *Innertube) Comments(ctx context.Context, videoID string, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	visitorData := generateVisitorData()
	client := webClient(visitorData, "en")

	nextData, err := s.postWEB(ctx, "/youtubei/v1/next", nextPayload(videoID, client), visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}
	token := commentsToken(nextData)
	if token == "" {
		return nil, ErrNoComments
	}

	var out []Comment
	for page := 0; page < maxCommentPages && token != "" && len(out) < limit; page++ {
		data, err := s.postWEB(ctx, "/youtubei/v1/next", map[string]any{
			"continuation": token,
			"context":      map[string]any{"client": client},
		}, visitorData)
		if err != nil {
			if len(out) > 0 {
				break
			}
			return nil, fmt.Errorf("comments page: %w", err)
		}
		var comments []Comment
		comments, token = parseCommentsPage(data)
		out = append(out, comments...)
	}
	if len(out) == 0 {
		return nil, ErrNoComments
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// commentsToken finds the continuation token inside the comment item section.
func commentsToken(data []byte) string {
	end := bytes.Index(data, []byte(commentSectionID))
	if end < 0 {
		return ""
	}
	start := bytes.LastIndex(data[:end], []byte(`"itemSectionRenderer":{`))
	if start < 0 {
		start = 0
	}
	m := continuationTokenRE.FindAllSubmatch(data[start:end], -1)
	if len(m) == 0 {
		return ""
	}
	return string(m[len(m)-1][1])
}

// parseCommentsPage returns the comments of one continuation response and
// the token of the next page. Entity payloads are matched to threads by key;
// older responses carry a commentRenderer per thread instead.
func parseCommentsPage(data []byte) ([]Comment, string) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, ""
	}

	entities := make(map[string]map[string]any)
	var entityOrder []map[string]any
	for _, mu := range asSlice(dig(root, "frameworkUpdates", "entityBatchUpdate", "mutations")) {
		p, ok := dig(mu, "payload", "commentEntityPayload").(map[string]any)
		if !ok {
			continue
		}
		entityOrder = append(entityOrder, p)
		if key := digString(mu, "entityKey"); key != "" {
			entities[key] = p
		}
		if key := digString(p, "key"); key != "" {
			entities[key] = p
		}
	}

	var (
		out  []Comment
		next string
	)
	for _, ep := range asSlice(root["onResponseReceivedEndpoints"]) {
		items := dig(ep, "reloadContinuationItemsCommand", "continuationItems")
		if items == nil {
			items = dig(ep, "appendContinuationItemsAction", "continuationItems")
		}
		for _, item := range asSlice(items) {
			if ci := dig(item, "continuationItemRenderer"); ci != nil {
				if tok := continuationItemToken(ci); tok != "" {
					next = tok
				}
				continue
			}
			thread := dig(item, "commentThreadRenderer")
			if thread == nil {
				continue
			}
			if key := digString(thread, "commentViewModel", "commentViewModel", "commentKey"); key != "" {
				if p, ok := entities[key]; ok {
					out = append(out, entityComment(p))
					continue
				}
			}
			if r := dig(thread, "comment", "commentRenderer"); r != nil {
				out = append(out, rendererComment(r))
			}
		}
	}
	if len(out) == 0 {
		for _, p := range entityOrder {
			out = append(out, entityComment(p))
		}
	}

	kept := out[:0]
	for _, c := range out {
		if c.Text != "" {
			kept = append(kept, c)
		}
	}
	return kept, next
}

func continuationItemToken(ci any) string {
	if tok := digString(ci, "continuationEndpoint", "continuationCommand", "token"); tok != "" {
		return tok
	}
	return digString(ci, "button", "buttonRenderer", "command", "continuationCommand", "token")
}

func entityComment(p map[string]any) Comment {
	isCreator, _ := dig(p, "author", "isCreator").(bool)
	return Comment{
		Author:     digString(p, "author", "displayName"),
		Text:       strings.TrimSpace(digString(p, "properties", "content", "content")),
		Likes:      strings.TrimSpace(digString(p, "toolbar", "likeCountNotliked")),
		Published:  digString(p, "properties", "publishedTime"),
		IsCreator:  isCreator,
		ReplyCount: atoiLoose(digString(p, "toolbar", "replyCount")),
	}
}

func rendererComment(r any) Comment {
	isCreator, _ := dig(r, "authorIsChannelOwner").(bool)
	replies, _ := dig(r, "replyCount").(float64)
	return Comment{
		Author:     textOf(dig(r, "authorText")),
		Text:       strings.TrimSpace(textOf(dig(r, "contentText"))),
		Likes:      textOf(dig(r, "voteCount")),
		Published:  textOf(dig(r, "publishedTimeText")),
		IsCreator:  isCreator,
		ReplyCount: int(replies),
	}
}

// textOf reads a {"simpleText": ...} or {"runs": [...]} text object.
func textOf(v any) string {
	if s := digString(v, "simpleText"); s != "" {
		return s
	}
	var b strings.Builder
	for _, r := range asSlice(dig(v, "runs")) {
		b.WriteString(digString(r, "text"))
	}
	return b.String()
}

func dig(v any, path ...string) any {
	for _, k := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func digString(v any, path ...string) string {
	s, _ := dig(v, path...).(string)
	return s
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// atoiLoose parses "1,234"-style counts; anything else is 0.
func atoiLoose(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// --- mirrors ---

type invidiousComments struct {
	Comments []struct {
		Author               string `json:"author"`
		Content              string `json:"content"`
		LikeCount            int    `json:"likeCount"`
		PublishedText        string `json:"publishedText"`
		AuthorIsChannelOwner bool   `json:"authorIsChannelOwner"`
		Replies              struct {
			ReplyCount int `json:"replyCount"`
		} `json:"replies"`
	} `json:"comments"`
}

type pipedComments struct {
	Comments []struct {
		Author        string `json:"author"`
		CommentText   string `json:"commentText"`
		LikeCount     int    `json:"likeCount"`
		CommentedTime string `json:"commentedTime"`
		ChannelOwner  bool   `json:"channelOwner"`
		ReplyCount    int    `json:"replyCount"`
	} `json:"comments"`
}

// Comments returns the first page of comments any instance serves.
func (m *Mirror) Comments(ctx context.Context, videoID string, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = DefaultCommentLimit
	}
	var lastErr error
	for _, inst := range m.list.Invidious {
		out, err := m.invidiousComments(ctx, inst, videoID)
		if err == nil && len(out) > 0 {
			return capComments(out, limit), nil
		}
		lastErr = err
	}
	for _, inst := range m.pipedInstances(ctx) {
		out, err := m.pipedComments(ctx, inst, videoID)
		if err == nil && len(out) > 0 {
			return capComments(out, limit), nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoComments
	}
	return nil, fmt.Errorf("comments: %w", lastErr)
}

func (m *Mirror) invidiousComments(ctx context.Context, inst, videoID string) ([]Comment, error) {
	mctx, cancel := context.WithTimeout(ctx, mirrorMetadataTimeout)
	defer cancel()
	var resp invidiousComments
	if err := m.getJSON(mctx, inst+"/api/v1/comments/"+videoID, &resp); err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		out = append(out, Comment{
			Author:     c.Author,
			Text:       strings.TrimSpace(c.Content),
			Likes:      strconv.Itoa(c.LikeCount),
			Published:  c.PublishedText,
			IsCreator:  c.AuthorIsChannelOwner,
			ReplyCount: c.Replies.ReplyCount,
		})
	}
	return out, nil
}

func (m *Mirror) pipedComments(ctx context.Context, inst, videoID string) ([]Comment, error) {
	mctx, cancel := context.WithTimeout(ctx, mirrorMetadataTimeout)
	defer cancel()
	var resp pipedComments
	if err := m.getJSON(mctx, inst+"/comments/"+videoID, &resp); err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		text := c.CommentText
		if md, err := htmltomarkdown.ConvertString(c.CommentText); err == nil {
			text = md
		}
		out = append(out, Comment{
			Author:     c.Author,
			Text:       strings.TrimSpace(text),
			Likes:      strconv.Itoa(c.LikeCount),
			Published:  c.CommentedTime,
			IsCreator:  c.ChannelOwner,
			ReplyCount: c.ReplyCount,
		})
	}
	return out, nil
}

func capComments(c []Comment, limit int) []Comment {
	if len(c) > limit {
		return c[:limit]
	}
	return c
}
