package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRemoteAddr(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.RemoteAddr))
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "no trusted proxies ignores headers",
			remote:  "10.0.0.1:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "10.0.0.1:5000",
		},
		{
			name:    "trusted cidr uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.1:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "trusted single address uses first forwarded hop",
			trusted: []string{" 10.0.0.1 "},
			remote:  "10.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"},
			want:    "5.6.7.8",
		},
		{
			name:    "untrusted source keeps connection address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "192.168.1.1:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "192.168.1.1:5000",
		},
		{
			name:    "invalid header value ignored",
			trusted: []string{"10.0.0.0/8", "not-an-ip"},
			remote:  "10.0.0.1:5000",
			headers: map[string]string{"X-Real-IP": "garbage"},
			want:    "10.0.0.1:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(echoRemoteAddr))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::ffff:10.1.2.3]:80"
	assert.Equal(t, "10.1.2.3", ClientIP(req))

	req.RemoteAddr = "not an address"
	assert.Equal(t, "not an address", ClientIP(req))
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	reject := func(w http.ResponseWriter, r *http.Request, status int) {
		w.WriteHeader(status)
	}

	tests := []struct {
		name     string
		required bool
		keys     []string
		header   string
		value    string
		want     int
	}{
		{name: "disabled", required: false, want: http.StatusNoContent},
		{name: "missing key", required: true, keys: []string{"k1"}, want: http.StatusUnauthorized},
		{name: "wrong key", required: true, keys: []string{"k1"}, header: "X-API-Key", value: "nope", want: http.StatusForbidden},
		{name: "header key", required: true, keys: []string{"k1", "k2"}, header: "X-API-Key", value: "k2", want: http.StatusNoContent},
		{name: "bearer token", required: true, keys: []string{"k1"}, header: "Authorization", value: "Bearer k1", want: http.StatusNoContent},
		{name: "no keys configured", required: true, header: "X-API-Key", value: "k1", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth(tt.required, tt.keys, reject)(ok)

			req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "clients have separate buckets")

	clock = clock.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled after half a minute")

	clock = clock.Add(10 * time.Minute)
	rl.Allow("c")
	assert.Equal(t, 1, rl.Visitors(), "idle clients are pruned")
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve().Code)
	rec := serve()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	require.Contains(t, out, "msg=request")
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/upload")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "bytes=15")
	assert.Contains(t, out, "ip=10.0.0.2")
}
