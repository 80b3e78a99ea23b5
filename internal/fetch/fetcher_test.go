package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTimer fires immediately and remembers every requested delay
type recordingTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (t *recordingTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c <- time.Now()
}

func (t *recordingTimer) Stop()               {}
func (t *recordingTimer) C() <-chan time.Time { return t.c }

const unavailablePage = `<html><head><title>Temporarily out of service</title></head><body></body></html>`

// scriptedServer answers the n-th request with responses[n], repeating the last one
func scriptedServer(t *testing.T, responses ...func(w http.ResponseWriter)) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&hits, 1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		responses[n](w)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func body(status int, text string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(text))
	}
}

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestFetchRetriesSentinelThenSucceeds(t *testing.T) {
	srv, hits := scriptedServer(t,
		body(http.StatusOK, unavailablePage),
		body(http.StatusOK, unavailablePage),
		body(http.StatusOK, "<html><body>results</body></html>"),
	)
	timer := newRecordingTimer()
	f := New(withTimer(timer))

	out := f.Fetch(context.Background(), srv.URL+"/search/?q=x", false)

	require.Equal(t, Success, out.Kind)
	assert.Equal(t, "<html><body>results</body></html>", string(out.Body))
	assert.Equal(t, 3, out.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(hits))
	assert.Equal(t, []time.Duration{6 * time.Second, 6 * time.Second}, timer.delays)
}

func TestFetchTerminalStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := scriptedServer(t, body(tt.status, "nope"))
			timer := newRecordingTimer()
			f := New(withTimer(timer))

			out := f.Fetch(context.Background(), srv.URL, false)

			assert.Equal(t, TerminalFailure, out.Kind)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, 1, out.Attempts)
			assert.EqualValues(t, 1, atomic.LoadInt32(hits))
			assert.Empty(t, timer.delays)

			var statusErr *StatusError
			assert.ErrorAs(t, out.Err, &statusErr)
		})
	}
}

func TestFetchNameAuthoritySentinel(t *testing.T) {
	srv, hits := scriptedServer(t,
		body(http.StatusOK, "<html>Service error</html>"),
		body(http.StatusOK, `{"query":"alciati","result":null}`),
	)
	timer := newRecordingTimer()
	f := New(withTimer(timer), WithNameAuthorityHosts(hostOf(srv)))

	out := f.Fetch(context.Background(), srv.URL+"/viaf/AutoSuggest?query=alciati", true)

	require.True(t, out.OK())
	assert.JSONEq(t, `{"query":"alciati","result":null}`, string(out.Body))
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
	assert.Len(t, timer.delays, 1)
}

func TestFetchVocabularyBodyStartingWithMarkupIsFine(t *testing.T) {
	srv, hits := scriptedServer(t, body(http.StatusOK, "<html>ok</html>"))
	f := New(withTimer(newRecordingTimer()), WithNameAuthorityHosts("viaf.org"))

	out := f.Fetch(context.Background(), srv.URL, false)

	assert.True(t, out.OK())
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestFetchRetriesTransientConditions(t *testing.T) {
	tests := []struct {
		name             string
		first            func(w http.ResponseWriter)
		expectStructured bool
	}{
		{name: "server error", first: body(http.StatusInternalServerError, "boom")},
		{name: "rate limited", first: body(http.StatusTooManyRequests, "slow down")},
		{name: "marker with error status", first: body(http.StatusServiceUnavailable, unavailablePage)},
		{name: "malformed json", first: body(http.StatusOK, `{"result": [`), expectStructured: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := scriptedServer(t, tt.first, body(http.StatusOK, `{"result":[]}`))
			timer := newRecordingTimer()
			f := New(withTimer(timer))

			out := f.Fetch(context.Background(), srv.URL, tt.expectStructured)

			assert.True(t, out.OK())
			assert.Equal(t, 2, out.Attempts)
			assert.EqualValues(t, 2, atomic.LoadInt32(hits))
			assert.Len(t, timer.delays, 1)
		})
	}
}

func TestFetchRetryCeiling(t *testing.T) {
	srv, hits := scriptedServer(t, body(http.StatusOK, unavailablePage))
	timer := newRecordingTimer()
	f := New(withTimer(timer), WithRetryPolicy(RetryPolicy{Delay: time.Second, MaxAttempts: 3}))

	out := f.Fetch(context.Background(), srv.URL, false)

	assert.Equal(t, TerminalFailure, out.Kind)
	assert.Equal(t, 0, out.Status)
	assert.Equal(t, 3, out.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(hits))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, timer.delays)
	assert.Error(t, out.Err)
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	srv, _ := scriptedServer(t, body(http.StatusOK, unavailablePage))
	f := New(withTimer(newRecordingTimer()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.Fetch(ctx, srv.URL, false)

	assert.Equal(t, TerminalFailure, out.Kind)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestFetchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	srv, _ := scriptedServer(t,
		body(http.StatusOK, unavailablePage),
		body(http.StatusOK, "<html>ok</html>"),
	)
	f := New(withTimer(newRecordingTimer()), WithMetrics(m))
	require.True(t, f.Fetch(context.Background(), srv.URL, false).OK())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(string(VocabularyTerm), "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(string(VocabularyTerm), "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues(string(VocabularyTerm))))
}

func TestNewMetricsNilRegistry(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	// nil metrics must be safe to use
	m.observeAttempt(NameAuthority, nil)
	m.observeRetry(NameAuthority)
}

func TestClassify(t *testing.T) {
	hosts := []string{"viaf.org"}
	assert.Equal(t, NameAuthority, classify("http://www.viaf.org/viaf/AutoSuggest?query=x", hosts))
	assert.Equal(t, VocabularyTerm, classify("http://id.loc.gov/search/?q=aLabel:%22x%22", hosts))
}
