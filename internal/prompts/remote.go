package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RemoteSource calls an HTTP JSON endpoint for prompt generation — the
// concrete transport behind the "remote LLM prompt-generation" external
// collaborator named in spec.md §1. It is never consulted directly by the
// FSM; Fallback wraps it so a remote failure never surfaces past this
// package (§4.2, §9).
type RemoteSource struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewRemoteSource(url, apiKey string) *RemoteSource {
	return &RemoteSource{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type generateRequest struct {
	Count int    `json:"count"`
	Theme string `json:"theme,omitempty"`
}

type generateResponse struct {
	Prompts []string `json:"prompts"`
}

type lastLashRequest struct {
	Theme string `json:"theme,omitempty"`
}

type lastLashResponse struct {
	Prompt       string   `json:"prompt"`
	Mode         Mode     `json:"mode"`
	Letters      []string `json:"letters,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

func (s *RemoteSource) GeneratePrompts(ctx context.Context, count int, seen map[string]bool, theme string) ([]string, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("prompts: remote source not configured")
	}

	var resp generateResponse
	if err := s.post(ctx, "/prompts", generateRequest{Count: count, Theme: theme}, &resp); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(resp.Prompts))
	for _, p := range resp.Prompts {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func (s *RemoteSource) GenerateLastLash(ctx context.Context, seen map[string]bool, theme string) (LastLash, error) {
	if s.URL == "" {
		return LastLash{}, fmt.Errorf("prompts: remote source not configured")
	}

	var resp lastLashResponse
	if err := s.post(ctx, "/lastlash", lastLashRequest{Theme: theme}, &resp); err != nil {
		return LastLash{}, err
	}
	if seen[resp.Prompt] {
		return LastLash{}, fmt.Errorf("prompts: remote returned a repeated prompt")
	}
	seen[resp.Prompt] = true

	return LastLash{
		Prompt:       resp.Prompt,
		Mode:         resp.Mode,
		Letters:      resp.Letters,
		Instructions: resp.Instructions,
	}, nil
}

func (s *RemoteSource) post(ctx context.Context, path string, reqBody, respBody any) error {
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prompts: remote source returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(respBody)
}
