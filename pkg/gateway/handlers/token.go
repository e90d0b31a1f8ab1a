package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/clykins90/agent-dashboard/pkg/gateway/apierror"
	"github.com/clykins90/agent-dashboard/pkg/gateway/auth"
	"github.com/clykins90/agent-dashboard/pkg/gateway/metrics"
	"github.com/clykins90/agent-dashboard/pkg/gateway/mw"
	"github.com/clykins90/agent-dashboard/pkg/gateway/ratelimit"
	"github.com/clykins90/agent-dashboard/pkg/realtime"
)

// TokenMinter mints one short-lived realtime credential.
type TokenMinter interface {
	Mint(ctx context.Context) (realtime.Credential, error)
}

// Token hands browser clients a short-lived realtime credential so the
// long-lived upstream API key never leaves the server.
type Token struct {
	Minter TokenMinter
	// AuthToken is the shared bearer secret; empty disables auth.
	AuthToken string
	// TrustProxyHeaders permits X-Forwarded-For for client identity.
	TrustProxyHeaders bool
	Limiter           *ratelimit.Limiter
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (h *Token) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		apierror.MethodNotAllowed(w, requestID)
		return
	}

	if !auth.CheckSharedSecret(r, h.AuthToken) {
		h.Metrics.RecordTokenMint("unauthorized")
		apierror.Unauthorized(w, requestID)
		return
	}

	addr := h.clientAddr(r)
	if h.Limiter != nil && !h.Limiter.Allow(addr, h.now()) {
		h.Metrics.RecordRateLimitHit()
		h.Metrics.RecordTokenMint("rate_limited")
		if h.Logger != nil {
			h.Logger.Warn("token mint rate limited", "addr", addr)
		}
		apierror.TooManyRequests(w, requestID)
		return
	}

	cred, err := h.Minter.Mint(r.Context())
	if err != nil {
		h.Metrics.RecordTokenMint("error")
		if h.Logger != nil {
			h.Logger.Error("token mint failed", "err", err)
		}
		apierror.ServerError(w, requestID)
		return
	}

	h.Metrics.RecordTokenMint("ok")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(cred)
}

func (h *Token) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// clientAddr identifies the caller for rate limiting. Proxy headers are
// only honored when the deployment says the proxy is trusted; otherwise a
// client could rotate identities with a header.
func (h *Token) clientAddr(r *http.Request) string {
	if h.TrustProxyHeaders {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			// First hop is the original client.
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			if addr := strings.TrimSpace(fwd); addr != "" {
				return addr
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
