// Package store is the JSON-file-backed configuration and transcript store.
// Writes are best effort; reads fall back to built-in defaults so a missing
// or corrupt file is never fatal to a call.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	agentConfigFile = "agentConfig.json"
	transcriptsFile = "transcripts.json"
)

type ToolParam struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

type ToolConfig struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Params      []ToolParam `json:"params"`
}

type AgentConfig struct {
	SystemPrompt string       `json:"systemPrompt"`
	Model        string       `json:"model"`
	Tools        []ToolConfig `json:"tools"`
}

type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type Transcript struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"createdAt"`
	Messages  []ChatMessage `json:"messages"`
}

// DefaultAgentConfig is returned whenever the stored config is absent or
// unreadable.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		SystemPrompt: "You are a helpful assistant. When tools are used, ALWAYS summarize the relevant results clearly for the user. Include dates/times and key fields. If the tool returns a list, extract the top items with times and names.",
		Model:        "gpt-4o-mini",
		Tools:        []ToolConfig{},
	}
}

// NewTranscript builds a transcript with a fresh id and timestamp.
func NewTranscript(messages []ChatMessage) Transcript {
	return Transcript{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Messages:  messages,
	}
}

type Store struct {
	dir string

	mu sync.Mutex
}

func New(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "agent_dashboard")}
}

func (s *Store) AgentConfig() AgentConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg AgentConfig
	if !s.readJSON(agentConfigFile, &cfg) {
		return DefaultAgentConfig()
	}
	return cfg
}

func (s *Store) SetAgentConfig(cfg AgentConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(agentConfigFile, cfg)
}

func (s *Store) Transcripts() []Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptsLocked()
}

// SaveTranscript prepends, newest first.
func (s *Store) SaveTranscript(t Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.transcriptsLocked()
	all = append([]Transcript{t}, all...)
	return s.writeJSON(transcriptsFile, all)
}

// AppendToTranscript adds a message to an existing transcript. Unknown ids
// are ignored.
func (s *Store) AppendToTranscript(id string, msg ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.transcriptsLocked()
	for i := range all {
		if all[i].ID == id {
			all[i].Messages = append(all[i].Messages, msg)
			return s.writeJSON(transcriptsFile, all)
		}
	}
	return nil
}

func (s *Store) transcriptsLocked() []Transcript {
	var all []Transcript
	if !s.readJSON(transcriptsFile, &all) || all == nil {
		return []Transcript{}
	}
	return all
}

func (s *Store) readJSON(name string, v any) bool {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (s *Store) writeJSON(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), raw, 0o644)
}
