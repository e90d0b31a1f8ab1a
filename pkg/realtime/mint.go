package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultClientSecretsURL = "https://api.openai.com/v1/realtime/client_secrets"

// Credential is the opaque short-lived secret handed to clients so they can
// open their own realtime connection without seeing the upstream API key.
type Credential struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Minter creates realtime session credentials from the upstream provider.
type Minter struct {
	APIKey  string
	Model   string
	Voice   string
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

type mintSessionAudioOutput struct {
	Voice string `json:"voice,omitempty"`
}

type mintSessionAudio struct {
	Output *mintSessionAudioOutput `json:"output,omitempty"`
}

type mintSession struct {
	Type  string            `json:"type"`
	Model string            `json:"model"`
	Audio *mintSessionAudio `json:"audio,omitempty"`
}

type mintRequest struct {
	Session mintSession `json:"session"`
}

type mintResponse struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// Mint requests one credential. A single upstream failure is surfaced
// immediately; the caller decides whether to retry.
func (m *Minter) Mint(ctx context.Context) (Credential, error) {
	if m.APIKey == "" {
		return Credential{}, fmt.Errorf("mint realtime session: missing API key")
	}

	base := m.BaseURL
	if base == "" {
		base = DefaultClientSecretsURL
	}
	model := m.Model
	if model == "" {
		model = "gpt-realtime"
	}

	body := mintRequest{Session: mintSession{Type: "realtime", Model: model}}
	if m.Voice != "" {
		body.Session.Audio = &mintSessionAudio{Output: &mintSessionAudioOutput{Voice: m.Voice}}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Credential{}, fmt.Errorf("mint realtime session: %w", err)
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, base, bytes.NewReader(raw))
	if err != nil {
		return Credential{}, fmt.Errorf("mint realtime session: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("mint realtime session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Credential{}, fmt.Errorf("mint realtime session: upstream status %d: %s", resp.StatusCode, text)
	}

	var out mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Credential{}, fmt.Errorf("mint realtime session: decode response: %w", err)
	}
	if out.Value == "" {
		return Credential{}, fmt.Errorf("mint realtime session: no token in response")
	}
	return Credential{Token: out.Value, ExpiresAt: out.ExpiresAt}, nil
}
