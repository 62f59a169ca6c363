package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/support"
)

// SMTPConfig holds the SMTP settings a mycelium-maild process is started
// with: one outbound relay for the whole process, never per-tenant.
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	TLSMode string // "starttls" or "tls"
}

// SMTPSender delivers domain.Message values over SMTP, re-validating the
// egress host on every send to defend against DNS rebinding.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender validates cfg up front and returns a ready sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if err := support.ValidateEgressHost(cfg.Host); err != nil {
		return nil, fmt.Errorf("notify: invalid SMTP host: %w", err)
	}
	if err := support.ValidateSMTPPort(cfg.Port); err != nil {
		return nil, fmt.Errorf("notify: invalid SMTP port: %w", err)
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers msg, returning a tracking message id. It never logs the
// rendered body or the SMTP password.
func (s *SMTPSender) Send(ctx context.Context, msg domain.Message) (messageID string, err error) {
	if err := support.ValidateEgressHost(s.cfg.Host); err != nil {
		return "", fmt.Errorf("SMTP configuration failed validation")
	}

	from, err := sanitizeAddress(msg.From)
	if err != nil {
		return "", fmt.Errorf("invalid from address: %w", err)
	}
	to, err := sanitizeAddress(msg.To)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}

	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	dialer := &net.Dialer{Timeout: 5 * time.Second}

	var conn net.Conn
	if s.cfg.TLSMode == "tls" {
		conn, err = tls.DialWithDialer(dialer, "tcp", serverAddr, &tls.Config{
			ServerName: s.cfg.Host,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", serverAddr)
	}
	if err != nil {
		return "", fmt.Errorf("SMTP connection failed")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return "", fmt.Errorf("SMTP protocol error")
	}
	defer client.Quit()

	if s.cfg.TLSMode == "starttls" {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return "", fmt.Errorf("SMTP TLS upgrade failed")
		}
	}

	if s.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)); err != nil {
			return "", fmt.Errorf("SMTP authentication failed")
		}
	}

	if err := client.Mail(from); err != nil {
		return "", fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return "", fmt.Errorf("SMTP RCPT command failed: %w", err)
	}
	for _, cc := range msg.CC {
		ccAddr, err := sanitizeAddress(cc)
		if err != nil {
			continue
		}
		if err := client.Rcpt(ccAddr); err != nil {
			return "", fmt.Errorf("SMTP RCPT command failed for cc: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write(buildRFC5322(from, to, msg)); err != nil {
		return "", fmt.Errorf("failed to write email data: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize email: %w", err)
	}

	return fmt.Sprintf("<%d@%s>", time.Now().UnixNano(), s.cfg.Host), nil
}

func buildRFC5322(from, to string, msg domain.Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func sanitizeAddress(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") || strings.ContainsAny(parsed.Name, "\r\n") {
		return "", fmt.Errorf("CRLF injection detected")
	}
	return parsed.String(), nil
}
