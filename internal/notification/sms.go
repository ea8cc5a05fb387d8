package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type SMSConfig struct {
	APIURL  string
	APIKey  string
	Sender  string
	Timeout time.Duration
}

// SMSSender delivers one-time codes and login notices through an HTTP SMS
// gateway. Without an API URL the message is written to the log instead,
// which is what local development relies on.
type SMSSender struct {
	apiURL     string
	apiKey     string
	sender     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSMSSender(cfg SMSConfig, logger *slog.Logger) *SMSSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSSender{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type smsPayload struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *SMSSender) SendOTP(ctx context.Context, phone, code string) error {
	if s.apiURL == "" {
		s.logger.Info("sms gateway not configured, code logged only", "phone", phone, "code", code)
		return nil
	}
	if err := s.post(ctx, phone, fmt.Sprintf("Your verification code is %s", code)); err != nil {
		return err
	}
	s.logger.Info("otp sms sent", "phone", phone)
	return nil
}

// SendLoginNotice tells the account owner that a sign-in just happened.
func (s *SMSSender) SendLoginNotice(ctx context.Context, phone string) error {
	if s.apiURL == "" {
		s.logger.Info("sms gateway not configured, login notice logged only", "phone", phone)
		return nil
	}
	if err := s.post(ctx, phone, "You have just logged in to TaskTracker. If this was not you, change your password."); err != nil {
		return err
	}
	s.logger.Info("login notice sms sent", "phone", phone)
	return nil
}

func (s *SMSSender) post(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(smsPayload{From: s.sender, To: phone, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
