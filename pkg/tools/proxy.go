// Package tools executes agent-declared function tools by issuing outbound
// HTTP GET calls and packaging the result for the AI transport.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/clykins90/agent-dashboard/pkg/gateway/metrics"
	"github.com/clykins90/agent-dashboard/pkg/store"
)

const (
	// Sentinel results the model receives as ordinary tool output. These are
	// conversational responses, not escalated errors.
	executionErrorResult = "Tool execution error"
)

// Proxy runs the function tools declared in one call's agent config.
// A proxy is built per session from a read-only config snapshot.
type Proxy struct {
	Tools   []store.ToolConfig
	Client  *http.Client
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type toolResult struct {
	OK     bool `json:"ok"`
	Status int  `json:"status"`
	Data   any  `json:"data"`
}

// RunTool looks up name and issues the tool's GET request with the JSON
// arguments appended as query parameters. It always returns a string for
// the AI transport; failures become sentinel strings, never errors.
func (p *Proxy) RunTool(ctx context.Context, name, rawArgs string) string {
	tool, ok := p.lookup(name)
	if !ok {
		p.Metrics.RecordToolCall("not_found")
		return "Tool not found: " + name
	}

	// A malformed argument payload is treated the same as no arguments.
	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			args = map[string]any{}
		}
	}

	u, err := url.Parse(tool.URL)
	if err != nil {
		p.logw("tool url unparseable", "tool", name, "err", err)
		p.Metrics.RecordToolCall("error")
		return executionErrorResult
	}
	q := u.Query()
	for k, v := range args {
		if v == nil {
			continue
		}
		q.Set(k, stringifyArg(v))
	}
	u.RawQuery = q.Encode()

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		p.logw("tool request build failed", "tool", name, "err", err)
		p.Metrics.RecordToolCall("error")
		return executionErrorResult
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		p.logw("tool request failed", "tool", name, "err", err)
		p.Metrics.RecordToolCall("error")
		return executionErrorResult
	}
	defer resp.Body.Close()

	// A non-JSON body degrades to an empty object; the call still reports
	// its HTTP status.
	var data any = map[string]any{}
	if raw, err := io.ReadAll(resp.Body); err == nil {
		var parsed any
		if json.Unmarshal(raw, &parsed) == nil && parsed != nil {
			data = parsed
		}
	}

	succeeded := resp.StatusCode >= 200 && resp.StatusCode < 300
	out, err := json.Marshal(toolResult{
		OK:     succeeded,
		Status: resp.StatusCode,
		Data:   data,
	})
	if err != nil {
		p.Metrics.RecordToolCall("error")
		return executionErrorResult
	}
	if succeeded {
		p.Metrics.RecordToolCall("ok")
	} else {
		p.Metrics.RecordToolCall("upstream_error")
	}
	return string(out)
}

func (p *Proxy) lookup(name string) (store.ToolConfig, bool) {
	for _, t := range p.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return store.ToolConfig{}, false
}

func (p *Proxy) logw(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Warn(msg, args...)
	}
}

func stringifyArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
