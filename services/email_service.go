package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/footballinvestment/lfa-legacy-go/config"
)

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsConfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("failed to open TLS connection: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("failed to dial SMTP server: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed for %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA writer: %w", err)
	}
	return nil
}

var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(`
		<p>Welcome to LFA Legacy, {{.Nickname}}!</p>
		<p>Confirm your email address by following
		<a href="{{.ConfirmationLink}}">this link</a>.</p>`))

	bookingCancelledTemplate = template.Must(template.New("booking_cancelled").Parse(`
		<p>Your booking {{.Reference}} at {{.LocationName}} was cancelled.</p>
		<p>Reason: {{.Reason}}</p>
		<p>The booking fee has been refunded to your credit balance.</p>`))

	tournamentCancelledTemplate = template.Must(template.New("tournament_cancelled").Parse(`
		<p>The tournament <b>{{.TournamentName}}</b> has been cancelled.</p>
		<p>Reason: {{.Reason}}</p>
		<p>Your entry fee has been refunded.</p>`))
)

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template %s: %w", t.Name(), err)
	}
	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail, nickname, confirmationToken string) error {
	body, err := renderTemplate(welcomeTemplate, struct {
		Nickname         string
		ConfirmationLink string
	}{
		Nickname:         nickname,
		ConfirmationLink: fmt.Sprintf("%s/confirm-email?token=%s", s.cfg.PublicURL, confirmationToken),
	})
	if err != nil {
		return err
	}
	return s.SendEmail([]string{userEmail}, "Welcome to LFA Legacy", body)
}

func (s *EmailService) SendBookingCancelledEmail(userEmail, reference, locationName, reason string) error {
	body, err := renderTemplate(bookingCancelledTemplate, struct {
		Reference    string
		LocationName string
		Reason       string
	}{reference, locationName, reason})
	if err != nil {
		return err
	}
	return s.SendEmail([]string{userEmail}, "Booking cancelled", body)
}

func (s *EmailService) SendTournamentCancelledEmail(userEmail, tournamentName, reason string) error {
	body, err := renderTemplate(tournamentCancelledTemplate, struct {
		TournamentName string
		Reason         string
	}{tournamentName, reason})
	if err != nil {
		return err
	}
	return s.SendEmail([]string{userEmail}, fmt.Sprintf("Tournament %q cancelled", tournamentName), body)
}
