package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Messenger sends a short text message to a phone number, best effort.
type Messenger interface {
	Send(to, message string) error
}

// WhatsAppService posts messages through a WhatsApp provider API
// (Meta Cloud API compatible payload).
type WhatsAppService struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewWhatsAppService creates a WhatsAppService.
func NewWhatsAppService(apiURL, token string) *WhatsAppService {
	return &WhatsAppService{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		token:      token,
	}
}

type whatsAppMessage struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Send delivers a text message to the given number. A missing provider
// configuration is a silent no-op.
func (s *WhatsAppService) Send(to, message string) error {
	if s.apiURL == "" || s.token == "" {
		log.Printf("[WhatsApp] provider not configured, skipping message to %s", to)
		return nil
	}

	msg := whatsAppMessage{To: to, Type: "text"}
	msg.Text.Body = message

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[WhatsApp] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[WhatsApp] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("whatsapp provider returned status %d", resp.StatusCode)
	}

	return nil
}
