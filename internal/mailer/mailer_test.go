package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMailer_Send(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"sent"}`))
	}))
	defer server.Close()

	m := NewHTTPMailer(server.URL, "shop@example.com", server.Client(), zerolog.Nop())
	err := m.Send(context.Background(), "alice@example.com", "Reset your password", "link")

	require.NoError(t, err)
	assert.Equal(t, sendRequest{From: "shop@example.com", To: "alice@example.com", Subject: "Reset your password", Body: "link"}, got)
}

func TestHTTPMailer_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	m := NewHTTPMailer(server.URL, "", nil, zerolog.Nop())
	err := m.Send(context.Background(), "a@example.com", "s", "b")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPMailer_Unreachable(t *testing.T) {
	m := NewHTTPMailer("http://127.0.0.1:1", "", nil, zerolog.Nop())
	assert.Error(t, m.Send(context.Background(), "a@example.com", "s", "b"))
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(zerolog.New(&buf))

	require.NoError(t, m.Send(context.Background(), "a@example.com", "Hello", "body"))
	assert.Contains(t, buf.String(), "a@example.com")
	assert.Contains(t, buf.String(), "no email service configured")
}
