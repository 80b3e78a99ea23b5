package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultDelay   = 6 * time.Second
	defaultTimeout = 60 * time.Second
)

// RetryPolicy controls how transient failures are retried.
// MaxAttempts of zero retries until a definitive answer arrives.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy waits 6 seconds between attempts and never gives up
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: defaultDelay}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Fetcher performs lookups against remote authority services, retrying
// transient failures. It holds no per-call state and is safe for concurrent use.
type Fetcher struct {
	httpClient         *http.Client
	policy             RetryPolicy
	userAgent          string
	nameAuthorityHosts []string
	metrics            *Metrics
	timer              backoff.Timer
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the default client (60 second per-attempt timeout)
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithRetryPolicy sets the delay and attempt ceiling
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithUserAgent sets the User-Agent header sent on every attempt
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithNameAuthorityHosts lists the hosts whose responses use the
// name-authority sentinel. Defaults to viaf.org.
func WithNameAuthorityHosts(hosts ...string) Option {
	return func(f *Fetcher) { f.nameAuthorityHosts = hosts }
}

// WithMetrics records attempt counters
func WithMetrics(m *Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

func withTimer(t backoff.Timer) Option {
	return func(f *Fetcher) { f.timer = t }
}

// New creates a fetcher
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		policy:             DefaultRetryPolicy(),
		nameAuthorityHosts: []string{"viaf.org"},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy returns the retry policy in effect
func (f *Fetcher) Policy() RetryPolicy {
	return f.policy
}

// Fetch requests rawURL until it gets a usable body or a terminal answer.
// 403 and 404 end the lookup at once. Network errors, other statuses,
// sentinel-flagged bodies and, when expectStructured is set, bodies that are
// not valid JSON are retried according to the policy.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, expectStructured bool) Outcome {
	family := classify(rawURL, f.nameAuthorityHosts)
	start := time.Now()

	var (
		body     []byte
		attempts int
	)
	operation := func() error {
		attempts++
		slog.Debug("Lookup attempt", "url", rawURL, "family", family, "attempt", attempts)

		b, err := f.attempt(ctx, rawURL, family, expectStructured)
		f.metrics.observeAttempt(family, err)
		if err != nil {
			slog.Debug("Lookup attempt failed", "url", rawURL, "attempt", attempts, "err", err)
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, next time.Duration) {
		f.metrics.observeRetry(family)
		slog.Debug("Retrying lookup", "url", rawURL, "delay", next, "reason", err)
	}

	err := backoff.RetryNotifyWithTimer(operation, f.policy.backOff(ctx), notify, f.timer)
	if err == nil {
		slog.Debug("Lookup succeeded", "url", rawURL, "attempts", attempts, "duration", time.Since(start))
		return Outcome{Kind: Success, Body: body, Status: http.StatusOK, Attempts: attempts}
	}

	out := Outcome{Kind: TerminalFailure, Attempts: attempts, Err: err}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		out.Status = statusErr.StatusCode
	}
	slog.Debug("Lookup gave up", "url", rawURL, "attempts", attempts, "status", out.Status, "err", err)
	return out
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, family Family, expectStructured bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, &transientError{reason: "request failed", err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		return nil, backoff.Permanent(&StatusError{URL: rawURL, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{reason: "failed to read body", err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &transientError{reason: "unexpected status", status: resp.StatusCode}
	}
	if sentinelFlagged(family, body) {
		return nil, &transientError{reason: "service reported an error page", status: resp.StatusCode}
	}
	if expectStructured && !json.Valid(body) {
		return nil, &transientError{reason: "malformed structured body"}
	}
	return body, nil
}
