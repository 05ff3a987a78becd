package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/notify"
)

// SMTP delivers through a relay with PLAIN auth. APIKey is the password.
type SMTP struct {
	opts Options
	log  *zap.Logger
}

func NewSMTP(opts Options, log *zap.Logger) *SMTP {
	opts.defaults()
	return &SMTP{opts: opts, log: log}
}

func (s *SMTP) SendReportLink(ctx context.Context, link notify.ReportLink) error {
	html, err := htmlBody(link)
	if err != nil {
		return err
	}
	msg, err := buildMessage(s.opts.From, s.opts.FromName, link.Email, subject, textBody(link), html)
	if err != nil {
		return err
	}
	if err := s.send(ctx, link.Email, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Info("report mail sent", zap.String("provider", "smtp"))
	return nil
}

func (s *SMTP) Subscribe(context.Context, string, int) error {
	return fmt.Errorf("smtp subscribe: %w", ErrUnsupported)
}

func (s *SMTP) send(ctx context.Context, to string, msg []byte) error {
	host, _, err := net.SplitHostPort(s.opts.SMTPAddr)
	if err != nil {
		return err
	}
	d := net.Dialer{Timeout: s.opts.Timeout}
	conn, err := d.DialContext(ctx, "tcp", s.opts.SMTPAddr)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(s.opts.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if s.opts.SMTPUser != "" {
		if err := c.Auth(smtp.PlainAuth("", s.opts.SMTPUser, s.opts.APIKey, host)); err != nil {
			return err
		}
	}
	if err := c.Mail(s.opts.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// buildMessage writes a multipart/alternative message with CRLF line endings.
func buildMessage(from, fromName, to, subj, text, html string) ([]byte, error) {
	var body strings.Builder
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", html},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(crlf(part.content))); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subj)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	b.WriteString(body.String())
	return []byte(b.String()), nil
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}
