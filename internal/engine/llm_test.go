package engine

import (
	"context"
	"errors"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\nplain\n```", "plain"},
		{"  true  ", "true"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModelChainFallback(t *testing.T) {
	var calls []string
	chain := NewModelChainWith([]string{"a", "b", "c"}, map[string]CompleteFunc{
		"a": func(context.Context, string) (string, error) {
			calls = append(calls, "a")
			return "", errors.New("status 503: overloaded")
		},
		"b": func(context.Context, string) (string, error) {
			calls = append(calls, "b")
			return "```json\n{}\n```", nil
		},
		"c": func(context.Context, string) (string, error) {
			calls = append(calls, "c")
			return "never", nil
		},
	})

	got, err := chain.Generate(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "{}" {
		t.Errorf("got %q, want %q", got, "{}")
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("calls = %v, want [a b]", calls)
	}
}

func TestModelChainHintFirst(t *testing.T) {
	var first string
	fn := func(name string) CompleteFunc {
		return func(context.Context, string) (string, error) {
			if first == "" {
				first = name
			}
			return "ok", nil
		}
	}
	chain := NewModelChainWith([]string{"a", "b"}, map[string]CompleteFunc{"a": fn("a"), "b": fn("b")})
	if _, err := chain.Generate(context.Background(), "p", "models/b"); err != nil {
		t.Fatal(err)
	}
	if first != "b" {
		t.Errorf("hinted model should go first, got %q", first)
	}
}

func TestModelChainAuthStops(t *testing.T) {
	calls := 0
	chain := NewModelChainWith([]string{"a", "b"}, map[string]CompleteFunc{
		"a": func(context.Context, string) (string, error) {
			calls++
			return "", errors.New("HTTP 401: bad key")
		},
		"b": func(context.Context, string) (string, error) {
			calls++
			return "ok", nil
		},
	})
	_, err := chain.Generate(context.Background(), "p", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindAuth {
		t.Fatalf("expected auth APIError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("auth failure must stop the chain, got %d calls", calls)
	}
}

func TestModelChainEmpty(t *testing.T) {
	var chain *ModelChain
	if _, err := chain.Generate(context.Background(), "p", ""); err == nil {
		t.Error("expected error for nil chain")
	}
}
