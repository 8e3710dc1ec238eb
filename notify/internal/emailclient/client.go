// Package emailclient hands templated transactional emails to the mail
// delivery service. Rendering and SMTP happen downstream.
package emailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amesa-systems/amesa-notify/notify/internal/svcclient"
)

// Template names understood by the mail service.
const (
	TemplateWelcome       = "welcome"
	TemplateVerification  = "email_verification"
	TemplatePasswordReset = "password_reset"
	TemplateLotteryWinner = "lottery_winner"
)

// Message is the request body posted to the mail service.
type Message struct {
	To       string            `json:"to"`
	From     string            `json:"from,omitempty"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

// Sender is what event handlers need from the mail service.
type Sender interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
	SendLotteryWinner(ctx context.Context, email, name, houseTitle, ticketNumber string) error
}

type Client struct {
	http *svcclient.Client
	from string
}

func New(baseURL, apiKey, from string, timeout time.Duration) *Client {
	return &Client{
		http: svcclient.New("email", baseURL, apiKey, timeout),
		from: from,
	}
}

func (c *Client) SendWelcome(ctx context.Context, email, name string) error {
	return c.send(ctx, Message{
		To:       email,
		Subject:  "Welcome to Amesa Lottery!",
		Template: TemplateWelcome,
		Data:     map[string]string{"name": name},
	})
}

func (c *Client) SendVerification(ctx context.Context, email, token string) error {
	return c.send(ctx, Message{
		To:       email,
		Subject:  "Verify Your Email Address - Amesa Lottery",
		Template: TemplateVerification,
		Data:     map[string]string{"token": token},
	})
}

func (c *Client) SendPasswordReset(ctx context.Context, email, token string) error {
	return c.send(ctx, Message{
		To:       email,
		Subject:  "Reset Your Password - Amesa Lottery",
		Template: TemplatePasswordReset,
		Data:     map[string]string{"token": token},
	})
}

func (c *Client) SendLotteryWinner(ctx context.Context, email, name, houseTitle, ticketNumber string) error {
	return c.send(ctx, Message{
		To:       email,
		Subject:  "🎉 Congratulations! You Won the Lottery!",
		Template: TemplateLotteryWinner,
		Data: map[string]string{
			"name":         name,
			"houseTitle":   houseTitle,
			"ticketNumber": ticketNumber,
		},
	})
}

func (c *Client) send(ctx context.Context, msg Message) error {
	if c == nil {
		return fmt.Errorf("email client not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("send %s email: recipient address is empty", msg.Template)
	}
	if msg.From == "" {
		msg.From = c.from
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	resp, err := c.http.Do(ctx, http.MethodPost, "/api/v1/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send %s email: %w", msg.Template, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send %s email: mail service returned status %d", msg.Template, resp.StatusCode)
	}
	return nil
}
