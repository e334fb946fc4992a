package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

func TestOpenAIModeratorFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req moderationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "omni-moderation-latest" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(openAIModResponse{Results: []openAIModResult{{
			Flagged: true,
			Categories: map[string]bool{
				"hate/threatening": true,
				"self_harm":        true,
				"violence":         false,
			},
		}}})
	}))
	defer srv.Close()

	mod := newOpenAIModerator("test-key", srv.URL)
	result, err := mod.CheckSafety(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("CheckSafety: %v", err)
	}
	if result.Safe {
		t.Fatal("flagged text reported safe")
	}

	sort.Strings(result.Categories)
	want := []string{"hate (threatening)", "self harm"}
	if len(result.Categories) != len(want) {
		t.Fatalf("categories = %v, want %v", result.Categories, want)
	}
	for i, cat := range want {
		if result.Categories[i] != cat {
			t.Errorf("category[%d] = %q, want %q", i, result.Categories[i], cat)
		}
	}
}

func TestOpenAIModeratorClean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIModResponse{Results: []openAIModResult{{Flagged: false}}})
	}))
	defer srv.Close()

	result, err := newOpenAIModerator("test-key", srv.URL).CheckSafety(context.Background(), "fine text")
	if err != nil {
		t.Fatalf("CheckSafety: %v", err)
	}
	if !result.Safe || len(result.Categories) != 0 {
		t.Errorf("result = %+v, want safe with no categories", result)
	}
}

func TestMistralModeratorFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/moderations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req moderationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "mistral-moderation-latest" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(mistralModResponse{Results: []mistralModResult{{
			Categories: map[string]bool{"dangerous_and_criminal_content": true, "pii": false},
		}}})
	}))
	defer srv.Close()

	result, err := newMistralModerator("test-key", srv.URL).CheckSafety(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("CheckSafety: %v", err)
	}
	if result.Safe {
		t.Fatal("flagged text reported safe")
	}
	if len(result.Categories) != 1 || result.Categories[0] != "dangerous and criminal content" {
		t.Errorf("categories = %v", result.Categories)
	}
}

func TestModeratorAPIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newOpenAIModerator("bad-key", srv.URL).CheckSafety(context.Background(), "text"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

// staticModerator is a Moderator stub for fallback tests.
type staticModerator struct {
	result *ModerationResult
	err    error
	calls  int
}

func (m *staticModerator) CheckSafety(_ context.Context, _ string) (*ModerationResult, error) {
	m.calls++
	return m.result, m.err
}

func TestFallbackModerator(t *testing.T) {
	flagged := &ModerationResult{Safe: false, Categories: []string{"violence"}}

	t.Run("primary answer wins", func(t *testing.T) {
		primary := &staticModerator{result: flagged}
		secondary := &staticModerator{result: &ModerationResult{Safe: true}}

		result, err := newFallbackModerator(primary, secondary).CheckSafety(context.Background(), "text")
		if err != nil {
			t.Fatalf("CheckSafety: %v", err)
		}
		if result.Safe {
			t.Error("primary verdict was ignored")
		}
		if secondary.calls != 0 {
			t.Error("secondary consulted despite healthy primary")
		}
	})

	t.Run("secondary covers primary failure", func(t *testing.T) {
		primary := &staticModerator{err: errors.New("403 from project-scoped key")}
		secondary := &staticModerator{result: flagged}

		result, err := newFallbackModerator(primary, secondary).CheckSafety(context.Background(), "text")
		if err != nil {
			t.Fatalf("CheckSafety: %v", err)
		}
		if result.Safe {
			t.Error("secondary verdict was ignored")
		}
	})
}

func TestRegistryCheckPrompt(t *testing.T) {
	// No keys configured means no moderator; everything passes.
	r := NewRegistry("openai", nil)
	result, err := r.CheckPrompt(context.Background(), "anything")
	if err != nil {
		t.Fatalf("CheckPrompt: %v", err)
	}
	if !result.Safe {
		t.Error("text blocked with no moderator configured")
	}

	// An injected moderator takes over.
	r.SetModerator(&staticModerator{result: &ModerationResult{Safe: false, Categories: []string{"pii"}}})
	result, err = r.CheckPrompt(context.Background(), "anything")
	if err != nil {
		t.Fatalf("CheckPrompt: %v", err)
	}
	if result.Safe {
		t.Error("injected moderator verdict was ignored")
	}
}
