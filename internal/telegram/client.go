// Package telegram is a minimal Bot API client covering the calls the platform makes.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vacancyhub/internal/observability"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	ParseModeHTML  = "HTML"
)

// APIError is returned when the Bot API answers with a non-2xx status or ok=false.
type APIError struct {
	StatusCode  int
	Body        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram api error: status %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("telegram api error: status %d: %s", e.StatusCode, e.Body)
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// Photo is either a URL Telegram can fetch or raw bytes uploaded with the request.
type Photo struct {
	URL      string
	Data     []byte
	Filename string
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
}

// NewClient returns a client with a 10s request timeout when httpClient is nil.
func NewClient(baseURL, botToken string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		botToken:   botToken,
		httpClient: httpClient,
	}
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
}

// SendMessage sends an HTML-formatted text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": ParseModeHTML,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}

	var msg Message
	if err := c.callJSON(ctx, "sendMessage", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendPhoto sends a photo with an HTML caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo Photo, caption string, markup *InlineKeyboardMarkup) (*Message, error) {
	var msg Message
	if len(photo.Data) == 0 {
		if photo.URL == "" {
			return nil, fmt.Errorf("telegram send photo: no photo source")
		}
		payload := map[string]any{
			"chat_id":    chatID,
			"photo":      photo.URL,
			"caption":    caption,
			"parse_mode": ParseModeHTML,
		}
		if markup != nil {
			payload["reply_markup"] = markup
		}
		if err := c.callJSON(ctx, "sendPhoto", payload, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"caption":    caption,
		"parse_mode": ParseModeHTML,
	}
	if markup != nil {
		raw, err := json.Marshal(markup)
		if err != nil {
			return nil, fmt.Errorf("telegram send photo encode markup: %w", err)
		}
		fields["reply_markup"] = string(raw)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("telegram send photo encode: %w", err)
		}
	}
	filename := photo.Filename
	if filename == "" {
		filename = "photo.jpg"
	}
	part, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return nil, fmt.Errorf("telegram send photo encode: %w", err)
	}
	if _, err := part.Write(photo.Data); err != nil {
		return nil, fmt.Errorf("telegram send photo encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("telegram send photo encode: %w", err)
	}

	if err := c.call(ctx, "sendPhoto", w.FormDataContentType(), &body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetChat resolves a public @handle (or numeric id as string) to chat info.
func (c *Client) GetChat(ctx context.Context, chat string) (*Chat, error) {
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return nil, fmt.Errorf("telegram get chat: empty chat reference")
	}
	if _, err := strconv.ParseInt(chat, 10, 64); err != nil && !strings.HasPrefix(chat, "@") {
		chat = "@" + chat
	}

	var info Chat
	if err := c.callJSON(ctx, "getChat", map[string]any{"chat_id": chat}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) callJSON(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s encode: %w", method, err)
	}
	return c.call(ctx, method, "application/json", bytes.NewReader(body), result)
}

func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader, result any) (err error) {
	done := observability.TrackTelegram(method)
	defer done()
	ctx, span := observability.StartClientSpan(ctx, "telegram", method)
	defer func() { observability.EndSpan(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), body)
	if err != nil {
		return fmt.Errorf("telegram %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram %s read: %w", method, err)
	}

	var parsed apiResponse
	jsonErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 4<<10)}
		if jsonErr == nil {
			apiErr.Description = parsed.Description
		}
		return apiErr
	}
	if jsonErr != nil {
		return fmt.Errorf("telegram %s decode: %w", method, jsonErr)
	}
	if !parsed.OK {
		return &APIError{StatusCode: resp.StatusCode, Description: parsed.Description}
	}
	if result != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return fmt.Errorf("telegram %s decode result: %w", method, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
