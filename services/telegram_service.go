package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TelegramService delivers messages through the Telegram bot API. Each
// operator account carries its own bot token and chat id; delivery is
// reported per message so callers only mark reminders sent on confirmed
// success.
type TelegramService struct {
	baseURL string
	client  *http.Client
}

// NewTelegramService creates a new TelegramService against the given API
// base URL.
func NewTelegramService(baseURL string) *TelegramService {
	return &TelegramService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts one message to a chat and returns an error unless the
// API confirms delivery.
func (s *TelegramService) SendMessage(token, chatID, text string) error {
	if token == "" || chatID == "" {
		return fmt.Errorf("telegram credentials are not configured")
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %v", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, token)
	resp, err := s.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to reach telegram: %v", err)
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode telegram response: %v", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected the message: %s", result.Description)
	}
	return nil
}
