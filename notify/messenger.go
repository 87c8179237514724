package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"toolcabinet-backend/config"
)

// WebhookMessenger posts overdue reminders to the external messaging gateway
// (the WhatsApp bridge in production) as a JSON webhook.
type WebhookMessenger struct {
	url    string
	client *http.Client
}

func NewWebhookMessenger(cfg config.ReminderConfig) *WebhookMessenger {
	return &WebhookMessenger{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type reminderPayload struct {
	Phone         string `json:"phone"`
	BorrowerName  string `json:"borrowerName"`
	EquipmentName string `json:"equipmentName"`
	BorrowDate    string `json:"borrowDate"`
	HoursOverdue  int    `json:"hoursOverdue"`
	CityName      string `json:"cityName"`
}

func (m *WebhookMessenger) SendOverdueReminder(ctx context.Context, phone, borrowerName, equipmentName, borrowDateDisplay string, hoursOverdue int, cityName string) error {
	if m.url == "" {
		return fmt.Errorf("reminder webhook not configured")
	}
	body, err := json.Marshal(reminderPayload{
		Phone:         phone,
		BorrowerName:  borrowerName,
		EquipmentName: equipmentName,
		BorrowDate:    borrowDateDisplay,
		HoursOverdue:  hoursOverdue,
		CityName:      cityName,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("reminder webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("reminder webhook returned %d", resp.StatusCode)
	}
	return nil
}
