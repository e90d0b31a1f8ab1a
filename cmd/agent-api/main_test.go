package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/clykins90/agent-dashboard/pkg/gateway/config"
	gatewayserver "github.com/clykins90/agent-dashboard/pkg/gateway/server"
)

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, apiDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		newServer: func(cfg config.Config, logger *slog.Logger) *gatewayserver.Server {
			t.Fatalf("newServer should not be called when config load fails")
			return nil
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if got := stderr.String(); got == "" {
		t.Fatalf("expected stderr output for startup error")
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
	}

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
}

func TestServerHandlerStack_Smoke(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := gatewayserver.New(config.Config{
		OpenAIAPIKey:         "test-key",
		RealtimeModel:        "gpt-realtime",
		TokenRateLimitMax:    10,
		TokenRateLimitWindow: time.Minute,
		DataDir:              t.TempDir(),
		ToolTimeout:          5 * time.Second,
		MintTimeout:          5 * time.Second,
		WSWriteTimeout:       5 * time.Second,
		WSHandshakeTimeout:   5 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
	}, logger)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.StatusCode)
	}
}

func TestRunAPI_ShutsDownOnSignal(t *testing.T) {
	t.Parallel()

	sigCh := make(chan chan<- os.Signal, 1)
	deps := apiDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{
				Addr:                 "127.0.0.1:0",
				OpenAIAPIKey:         "test-key",
				RealtimeModel:        "gpt-realtime",
				TokenRateLimitMax:    10,
				TokenRateLimitWindow: time.Minute,
				DataDir:              t.TempDir(),
				ToolTimeout:          5 * time.Second,
				MintTimeout:          5 * time.Second,
				WSWriteTimeout:       5 * time.Second,
				WSHandshakeTimeout:   5 * time.Second,
				ReadHeaderTimeout:    5 * time.Second,
				ShutdownGracePeriod:  5 * time.Second,
			}, nil
		},
		newServer: gatewayserver.New,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			sigCh <- c
		},
		signalStop: func(c chan<- os.Signal) {},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- runAPI(context.Background(), logger, deps)
	}()

	select {
	case c := <-sigCh:
		c <- os.Interrupt
	case <-time.After(5 * time.Second):
		t.Fatal("signal channel was never registered")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runAPI returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runAPI did not shut down after signal")
	}
}
