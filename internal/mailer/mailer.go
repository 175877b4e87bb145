package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Mailer sends a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type httpMailer struct {
	endpoint string
	from     string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHTTPMailer posts messages to an email service at serviceURL + "/send".
// A nil client gets a traced client with a 10 second timeout.
func NewHTTPMailer(serviceURL, from string, client *http.Client, logger zerolog.Logger) Mailer {
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &httpMailer{
		endpoint: serviceURL + "/send",
		from:     from,
		client:   client,
		logger:   logger.With().Str("component", "mailer").Logger(),
	}
}

func (m *httpMailer) Send(ctx context.Context, to, subject, body string) error {
	data, err := json.Marshal(sendRequest{From: m.from, To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	m.logger.Info().Str("subject", subject).Msg("email sent")
	return nil
}

type logMailer struct {
	logger zerolog.Logger
}

// NewLogMailer returns a mailer that only logs, for setups without an email service.
func NewLogMailer(logger zerolog.Logger) Mailer {
	return &logMailer{logger: logger.With().Str("component", "mailer").Logger()}
}

func (m *logMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email not sent: no email service configured")
	return nil
}
