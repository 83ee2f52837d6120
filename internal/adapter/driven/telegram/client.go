// Package telegram implements the Messenger port using the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Messenger = (*Client)(nil)

// ParseModeHTML makes Telegram interpret message text as its HTML subset.
const ParseModeHTML = "HTML"

// sendMessageRequest is the sendMessage payload.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Client implements the driven.Messenger port for a single chat.
type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	chatID    string
	parseMode string
}

// NewClient creates a Telegram client that sends to chatID. When parseMode is
// ParseModeHTML, message text is sent literally as escaped HTML.
func NewClient(baseURL, token, chatID, parseMode string) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: 15 * time.Second}, baseURL, token, chatID, parseMode)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token, chatID, parseMode string) *Client {
	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		chatID:    chatID,
		parseMode: parseMode,
	}
}

// Send posts text to the configured chat. Every failure is a *model.DeliveryError:
// a rejected token is DeliveryUnauthorized, a rejected request (unknown chat,
// malformed markup) is DeliveryBadRequest, anything else is DeliveryChannel.
func (c *Client) Send(ctx context.Context, text string) error {
	payload := sendMessageRequest{ChatID: c.chatID, Text: text}
	if c.parseMode == ParseModeHTML {
		payload.Text = RenderHTML(EscapeMarkdown(text))
		payload.ParseMode = ParseModeHTML
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.NewDeliveryError(model.DeliveryChannel, fmt.Errorf("encode message: %w", err))
	}

	endpoint := c.baseURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return model.NewDeliveryError(model.DeliveryChannel, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.NewDeliveryError(model.DeliveryChannel, redactToken(err, c.token))
	}
	defer resp.Body.Close()

	var result apiResponse
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		err = fmt.Errorf("read response: %w", err)
	} else if err = json.Unmarshal(raw, &result); err != nil {
		err = fmt.Errorf("decode response: %w", err)
	}

	if err == nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 && result.OK {
		return nil
	}

	var cause error
	switch {
	case err != nil:
		cause = fmt.Errorf("HTTP %d: %w", resp.StatusCode, err)
	case result.Description != "":
		cause = errors.New(result.Description)
	default:
		cause = fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return model.NewDeliveryError(model.DeliveryUnauthorized, cause)
	case http.StatusBadRequest:
		return model.NewDeliveryError(model.DeliveryBadRequest, cause)
	default:
		return model.NewDeliveryError(model.DeliveryChannel, cause)
	}
}

// redactToken removes the bot token from transport errors, which embed the
// request URL.
func redactToken(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
