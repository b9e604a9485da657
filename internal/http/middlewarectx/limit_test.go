package middlewarectx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded header ignored", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "9.9.9.9:1", want: "9.9.9.9"},
		{name: "real ip header ignored", headers: map[string]string{"X-Real-IP": "3.3.3.3"}, remote: "9.9.9.9:1", want: "9.9.9.9"},
		{name: "remote addr", remote: "9.9.9.9:1234", want: "9.9.9.9"},
		{name: "remote without port", remote: "9.9.9.9", want: "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	h := RateLimitMiddleware(limiter, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:3"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1"), "other clients keep their own budget")
}

func TestRateLimitMiddleware_RotatingForwardedFor(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	h := RateLimitMiddleware(limiter, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(xff string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1"
		r.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, do("3.3.3.3"))
}
