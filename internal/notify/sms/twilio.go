// Package sms sends one-time codes by text message.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// Sender delivers a text message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// CodeBody is the text of a one-time code message.
func CodeBody(code string) string {
	return "Your verification code is " + code
}

// TwilioClient sends SMS through the Twilio Messages REST API.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
}

// NewTwilioClient returns a client for the given account. Empty baseURL uses https://api.twilio.com.
func NewTwilioClient(accountSID, authToken, from, baseURL string) *TwilioClient {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Send posts body to the phone number to. It does not log the message body.
func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	if c.AccountSID == "" || c.AuthToken == "" {
		return fmt.Errorf("sms: twilio credentials not configured")
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)
	endpoint := c.BaseURL + "/2010-04-01/Accounts/" + url.PathEscape(c.AccountSID) + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// LogSender logs messages instead of sending them. Used when Twilio is not configured.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender returns a LogSender.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "sms").Logger()}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.log.Info().Str("to", to).Int("length", len(body)).Msg("sms (log only; set TWILIO_ACCOUNT_SID to deliver)")
	return nil
}
