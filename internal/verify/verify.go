// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package verify checks credentials against their provider's live API.
//
// Verification is a single minimal request per attempt with a hard
// timeout. There is no automatic retry: a failed check is reported and
// the decision to try again belongs to the caller. A per-process rate
// limiter keeps repeated setup runs from hammering provider endpoints.
package verify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cortexlinux/cortex-cli/internal/provider"
)

const (
	// DefaultTimeout is the hard cutoff for a verification request.
	DefaultTimeout = 10 * time.Second

	anthropicBaseURL = "https://api.anthropic.com"
	openaiBaseURL    = "https://api.openai.com"

	// anthropicVersion is the API version header Anthropic requires.
	anthropicVersion = "2023-06-01"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 4 * 1024
)

var (
	// ErrInvalidKey means the provider rejected the credential.
	ErrInvalidKey = errors.New("provider rejected the API key")
	// ErrUnreachable means the provider could not be contacted in time.
	ErrUnreachable = errors.New("provider unreachable")
	// ErrUnsupported means the provider kind has no live verification.
	ErrUnsupported = errors.New("no live verification for this provider")
)

// Result is the outcome of a verification attempt.
type Result struct {
	Kind provider.Kind
	// Valid is true when the provider accepted the credential.
	Valid bool
	// Detail is a short human-readable note (rate limited, model list
	// size, error text from the provider).
	Detail string
}

// Verifier performs live credential checks.
type Verifier struct {
	httpClient   *http.Client
	anthropicURL string
	openaiURL    string
	limiter      *rate.Limiter
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithBaseURLs overrides the provider endpoints, for tests.
func WithBaseURLs(anthropic, openai string) Option {
	return func(v *Verifier) {
		v.anthropicURL = anthropic
		v.openaiURL = openai
	}
}

// WithTimeout overrides the request cutoff.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) { v.httpClient.Timeout = d }
}

// WithLimiter overrides the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(v *Verifier) { v.limiter = l }
}

// New returns a Verifier with production endpoints.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		anthropicURL: anthropicBaseURL,
		openaiURL:    openaiBaseURL,
		// One check per two seconds with a small burst. Setup makes at
		// most a handful of these.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the key against the live API for kind. Ollama and
// unknown kinds return ErrUnsupported.
func (v *Verifier) Verify(ctx context.Context, kind provider.Kind, key string) (*Result, error) {
	switch kind {
	case provider.KindAnthropic:
		return v.verifyAnthropic(ctx, key)
	case provider.KindOpenAI:
		return v.verifyOpenAI(ctx, key)
	default:
		return nil, ErrUnsupported
	}
}

// verifyAnthropic sends a minimal messages request (max_tokens=1).
// Anthropic has no unauthenticated-friendly list endpoint, so the
// cheapest authenticated call is a one-token message.
func (v *Verifier) verifyAnthropic(ctx context.Context, key string) (*Result, error) {
	if err := v.wait(ctx); err != nil {
		return nil, err
	}

	body := `{"model":"claude-3-5-haiku-20241022","max_tokens":1,"messages":[{"role":"user","content":"ping"}]}`
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.anthropicURL+"/v1/messages", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	return v.classify(provider.KindAnthropic, resp)
}

// verifyOpenAI lists models, the cheapest authenticated OpenAI call.
func (v *Verifier) verifyOpenAI(ctx context.Context, key string) (*Result, error) {
	if err := v.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.openaiURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	return v.classify(provider.KindOpenAI, resp)
}

// classify maps a provider response to a Result.
//
// 401/403 means the key is bad. 429 means the key authenticated but the
// account is rate limited, which still proves the key works. Anything
// else in the 2xx/4xx range that authenticated counts as valid.
func (v *Verifier) classify(kind provider.Kind, resp *http.Response) (*Result, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Result{Kind: kind, Valid: false, Detail: readErrorDetail(resp)}, ErrInvalidKey
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Result{Kind: kind, Valid: true, Detail: "authenticated (account rate limited)"}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 500:
		return &Result{Kind: kind, Valid: true, Detail: resp.Status}, nil
	default:
		return nil, fmt.Errorf("%w: server returned %s", ErrUnreachable, resp.Status)
	}
}

func (v *Verifier) wait(ctx context.Context) error {
	if v.limiter == nil {
		return nil
	}
	if err := v.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// readErrorDetail extracts the provider's error message, if any.
func readErrorDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return resp.Status
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return resp.Status
}
