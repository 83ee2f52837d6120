package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "127.0.0.1:8080"},
		{raw: "garbage", want: "127.0.0.1:8080"},
		{raw: ":9090", want: "127.0.0.1:9090"},
		{raw: "0.0.0.0:8080", want: "127.0.0.1:8080"},
		{raw: "[::]:8080", want: "127.0.0.1:8080"},
		{raw: "10.0.0.5:8080", want: "10.0.0.5:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func serverAddr(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestCheck(t *testing.T) {
	assert.Equal(t, 0, check(serverAddr(t, http.StatusOK, `{"status":"ok"}`), io.Discard))
	assert.Equal(t, 1, check(serverAddr(t, http.StatusServiceUnavailable, `{"status":"stopped"}`), io.Discard))
	assert.Equal(t, 1, check(serverAddr(t, http.StatusOK, `not json`), io.Discard))
}

func TestCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	assert.Equal(t, 1, check(addr, io.Discard))
}
