package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/postguard/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *capturingTransport) Configure(sentry.ClientOptions) {}

func (t *capturingTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *capturingTransport) Flush(time.Duration) bool { return true }

func (t *capturingTransport) FlushWithContext(ctx context.Context) bool { return true }

func (t *capturingTransport) Close() {}

func TestSentryReporter_ReportsPanicAndRecovers(t *testing.T) {
	transport := &capturingTransport{}
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	}))
	t.Cleanup(func() { sentry.CurrentHub().BindClient(nil) })

	router := newRouter(Recovery(), CorrelationID())
	router.Use(SentryReporter()...)
	router.GET("/boom", func(c *gin.Context) { panic("resolver exploded") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(CorrelationIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	require.Len(t, transport.events, 1)
	assert.Equal(t, "req-42", transport.events[0].Tags["correlation_id"])
}

func TestSentryReporter_PassesThroughWithoutClient(t *testing.T) {
	router := newRouter(Recovery(), CorrelationID())
	router.Use(SentryReporter()...)
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeout(t *testing.T) {
	router := newRouter(Timeout(20 * time.Millisecond))
	router.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/slow", func(c *gin.Context) {
		time.Sleep(200 * time.Millisecond)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "request timed out", resp.Error.Message)
}
