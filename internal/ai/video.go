package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNoKeySelected is returned when video generation is requested before
// the operator has selected a billing key. Callers should treat it as a
// prompt to pick a key, not as a hard failure.
var ErrNoKeySelected = errors.New("ai: no billing key selected")

// BackendError is a video-backend failure carrying the HTTP status so
// callers can distinguish not-found (invalid/unbilled key) from other
// failures.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("video backend error (status %d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a backend "entity not found" response,
// which in practice means the selected billing key is invalid or unbilled.
func IsNotFound(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Status == http.StatusNotFound || strings.Contains(strings.ToLower(be.Message), "not found")
	}
	return false
}

// KeySource supplies the billing key for video generation. Selecting a key
// is an operator action in the studio; until one is picked, SelectedKey
// returns ErrNoKeySelected.
type KeySource interface {
	SelectedKey() (string, error)
}

// StaticKeySource is a KeySource over a fixed key list with an in-memory
// selection. The zero selection means no key is picked yet.
type StaticKeySource struct {
	mu       sync.RWMutex
	keys     []string
	selected string
}

// NewStaticKeySource creates a key source over the configured key list.
func NewStaticKeySource(keys []string) *StaticKeySource {
	return &StaticKeySource{keys: keys}
}

// Keys returns the configured billing keys.
func (s *StaticKeySource) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.keys...)
}

// Select picks one of the configured keys.
func (s *StaticKeySource) Select(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k == key {
			s.selected = key
			return nil
		}
	}
	return fmt.Errorf("ai: unknown billing key %q", key)
}

// SelectedKey returns the picked key, or ErrNoKeySelected.
func (s *StaticKeySource) SelectedKey() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return "", ErrNoKeySelected
	}
	return s.selected, nil
}

// VideoGenerator produces a short video clip for a prompt and aspect ratio.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt, ratio string) (string, error)
}

// VideoClient talks to a Veo-style video generation backend. Generation is
// billed, so every request carries the key picked through the KeySource.
type VideoClient struct {
	baseURL string
	keys    KeySource
	client  *http.Client
}

// NewVideoClient creates a video client for the given backend base URL.
func NewVideoClient(baseURL string, keys KeySource) *VideoClient {
	return &VideoClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		keys:    keys,
		// Video generation is slow; the backend holds the request open.
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// GenerateVideo requests a clip and returns its URI. Fails with
// ErrNoKeySelected when no billing key is picked, and with *BackendError
// for backend rejections.
func (c *VideoClient) GenerateVideo(ctx context.Context, prompt, ratio string) (string, error) {
	key, err := c.keys.SelectedKey()
	if err != nil {
		return "", err
	}

	body := videoRequest{Prompt: prompt, AspectRatio: ratio}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("video marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/videos:generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("video request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("video http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("video read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var result videoResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("video unmarshal: %w", err)
	}

	if result.URI == "" {
		return "", &BackendError{Status: resp.StatusCode, Message: "no video returned"}
	}
	return result.URI, nil
}

type videoRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

type videoResponse struct {
	URI string `json:"uri"`
}
