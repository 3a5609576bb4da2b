package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harentsoaR/medico-api/internal/models"
)

const DefaultTextbeltURL = "https://textbelt.com/text"

// NotificationService texts patients through Textbelt. Without an API key it
// only logs.
type NotificationService struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewNotificationService(endpoint, apiKey string) *NotificationService {
	if endpoint == "" {
		endpoint = DefaultTextbeltURL
	}
	return &NotificationService{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func statusMessage(apt *models.Appointment) string {
	when := apt.AppointmentDate.Format("Jan 2")
	if apt.TimeSlot != "" {
		when += " at " + apt.TimeSlot
	}
	return fmt.Sprintf("Appointment %s: %s %s with %s (%s) on %s.",
		apt.Status, apt.FirstName, apt.LastName, apt.DoctorName, apt.OrganizationName, when)
}

// NotifyStatusChange sends the SMS in the background so the response is not
// held up by the provider.
func (s *NotificationService) NotifyStatusChange(apt *models.Appointment) {
	if apt.Phone == "" {
		log.Info().Str("appointment", apt.ID.Hex()).Msg("SMS not sent: patient has no phone number")
		return
	}
	if s.apiKey == "" {
		log.Debug().Str("appointment", apt.ID.Hex()).Msg("SMS not sent: TEXTBELT_API_KEY not set")
		return
	}

	phone, body := apt.Phone, statusMessage(apt)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.SendSMS(ctx, phone, body); err != nil {
			log.Warn().Err(err).Str("phone", phone).Msg("failed to send SMS")
			return
		}
		log.Info().Str("phone", phone).Msg("sent SMS via Textbelt")
	}()
}

func (s *NotificationService) SendSMS(ctx context.Context, phone, message string) error {
	postBody, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(postBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode textbelt response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}
