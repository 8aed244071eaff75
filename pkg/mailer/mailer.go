package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const dialTimeout = 10 * time.Second

type Mailer interface {
	SendHTML(ctx context.Context, to, subject string, tpl *template.Template, data any) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // "Name <no-reply@example.com>" or a bare address
	UseTLS   bool   // implicit TLS (SMTPS, usually 465); otherwise STARTTLS is used when offered
}

type mailer struct {
	cfg *Config
}

func New(cfg *Config) Mailer {
	return &mailer{cfg: cfg}
}

func (m *mailer) SendHTML(ctx context.Context, to, subject string, tpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tpl.Execute(&body, data); err != nil {
		return fmt.Errorf("exec template: %w", err)
	}

	msg := BuildMessage(m.cfg.From, to, subject, body.String())

	client, err := m.dial(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	// smtp.Client has no context support; drop the connection once the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if m.cfg.Username != "" && m.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := client.Mail(ParseAddress(m.cfg.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

func (m *mailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))
	dialer := &net.Dialer{Timeout: dialTimeout}

	var (
		conn net.Conn
		err  error
	)

	if m.cfg.UseTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}

	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("new client: %w", err)
	}

	if !m.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("starttls: %w", err)
			}
		}
	}

	return client, nil
}

func BuildMessage(from, to, subject, htmlBody string) string {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody
}

// ParseAddress extracts the bare address from "Name <addr>".
func ParseAddress(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			return strings.TrimSpace(from[i+1 : i+j])
		}
	}

	return strings.TrimSpace(from)
}
