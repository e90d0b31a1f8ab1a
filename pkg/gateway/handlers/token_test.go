package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clykins90/agent-dashboard/pkg/gateway/ratelimit"
	"github.com/clykins90/agent-dashboard/pkg/realtime"
)

type fakeMinter struct {
	cred  realtime.Credential
	err   error
	mints int
}

func (m *fakeMinter) Mint(context.Context) (realtime.Credential, error) {
	m.mints++
	return m.cred, m.err
}

func newTokenHandler(minter *fakeMinter, max int) *Token {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Token{
		Minter:  minter,
		Limiter: ratelimit.New(ratelimit.Config{Max: max, Window: time.Minute}),
		Now:     func() time.Time { return base },
	}
}

func mintRequest(addr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/realtime/token", nil)
	r.RemoteAddr = addr
	return r
}

func TestToken_MintSuccess(t *testing.T) {
	minter := &fakeMinter{cred: realtime.Credential{Token: "ek_test_123", ExpiresAt: 1767225600}}
	h := newTokenHandler(minter, 10)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, mintRequest("203.0.113.7:4444"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got realtime.Credential
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Token != "ek_test_123" || got.ExpiresAt != 1767225600 {
		t.Errorf("credential = %+v", got)
	}
}

func TestToken_RateLimitAfterMax(t *testing.T) {
	minter := &fakeMinter{cred: realtime.Credential{Token: "ek", ExpiresAt: 1}}
	h := newTokenHandler(minter, 2)

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, mintRequest("203.0.113.7:4444"))
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}
	if minter.mints != 2 {
		t.Errorf("mints = %d, want 2", minter.mints)
	}

	// A different client still has budget.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, mintRequest("198.51.100.9:5555"))
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestToken_AuthRequired(t *testing.T) {
	minter := &fakeMinter{cred: realtime.Credential{Token: "ek", ExpiresAt: 1}}
	h := newTokenHandler(minter, 10)
	h.AuthToken = "s3cret"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, mintRequest("203.0.113.7:4444"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: status = %d", rec.Code)
	}
	if minter.mints != 0 {
		t.Error("mint must not run unauthorized")
	}

	r := mintRequest("203.0.113.7:4444")
	r.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rec.Code)
	}

	r = mintRequest("203.0.113.7:4444")
	r.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("good token: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestToken_UpstreamFailure(t *testing.T) {
	minter := &fakeMinter{err: errors.New("upstream 500")}
	h := newTokenHandler(minter, 10)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, mintRequest("203.0.113.7:4444"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "server_error" {
		t.Errorf("error code = %q", env.Error.Code)
	}
}

func TestToken_ClientAddr(t *testing.T) {
	h := &Token{}
	r := mintRequest("203.0.113.7:4444")
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")

	if got := h.clientAddr(r); got != "203.0.113.7" {
		t.Errorf("untrusted proxy: addr = %q", got)
	}

	h.TrustProxyHeaders = true
	if got := h.clientAddr(r); got != "198.51.100.1" {
		t.Errorf("trusted proxy: addr = %q", got)
	}
}
