package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"

	"toolcabinet-backend/config"
)

// SMTPMailer sends manager mail over plain SMTP. The account password is read
// from SMTP_PASSWORD so it stays out of the config file.
type SMTPMailer struct {
	host     string
	port     string
	from     string
	password string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		password: os.Getenv("SMTP_PASSWORD"),
	}
}

func (m *SMTPMailer) NotifyManagers(ctx context.Context, managerEmail, cityName, subject string, lines []string) error {
	return m.send(managerEmail, fmt.Sprintf("[%s] %s", cityName, subject), lines)
}

func (m *SMTPMailer) NotifyLowStock(ctx context.Context, managerEmail, cityName string, lines []string) error {
	return m.send(managerEmail, fmt.Sprintf("[%s] low stock alert", cityName), lines)
}

func (m *SMTPMailer) send(to, subject string, lines []string) error {
	if m.host == "" || to == "" {
		return nil
	}
	msg := []byte("Subject: " + subject + "\r\n\r\n" + strings.Join(lines, "\r\n"))
	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// NopMailer is the default when SMTP is unconfigured; it only logs.
type NopMailer struct{}

func (NopMailer) NotifyManagers(_ context.Context, managerEmail, cityName, subject string, lines []string) error {
	log.Printf("mail (noop) to %s [%s] %s: %d lines", managerEmail, cityName, subject, len(lines))
	return nil
}

func (NopMailer) NotifyLowStock(_ context.Context, managerEmail, cityName string, lines []string) error {
	log.Printf("mail (noop) low stock to %s [%s]: %v", managerEmail, cityName, lines)
	return nil
}
