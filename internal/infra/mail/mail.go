// Package mail delivers report links through Brevo, Resend or plain SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/notify"
)

var (
	ErrRateLimited = errors.New("mail provider rate limit exceeded")
	// ErrUnsupported is returned by providers without contact lists.
	ErrUnsupported = errors.New("operation not supported by mail provider")
)

// Options configures a mail provider.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	From     string
	FromName string
	// TemplateID selects a Brevo transactional template; 0 sends a rendered body.
	TemplateID int
	SMTPAddr   string
	SMTPUser   string
	Timeout    time.Duration
}

func (o *Options) defaults() {
	if o.Provider == "" {
		o.Provider = "brevo"
	}
	if o.From == "" {
		o.From = "hello@uselaunchlab.com"
	}
	if o.FromName == "" {
		o.FromName = "LaunchLab"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
}

// New picks the provider named in opts. Without an API key delivery is
// disabled and every send is only logged.
func New(opts Options, log *zap.Logger) (notify.Mailer, error) {
	opts.defaults()
	if opts.APIKey == "" {
		log.Warn("email provider key not set, report mails will be skipped")
		return Disabled{Log: log}, nil
	}
	switch strings.ToLower(opts.Provider) {
	case "brevo":
		return NewBrevo(opts, log), nil
	case "resend":
		return NewResend(opts, log), nil
	case "smtp":
		if opts.SMTPAddr == "" {
			return nil, errors.New("smtp provider needs email.smtp_addr")
		}
		return NewSMTP(opts, log), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", opts.Provider)
}

// Disabled drops every message.
type Disabled struct {
	Log *zap.Logger
}

func (d Disabled) SendReportLink(_ context.Context, link notify.ReportLink) error {
	d.Log.Info("mail disabled, report link not sent",
		zap.String("to", link.Email),
		zap.String("url", link.ReportURL))
	return nil
}

func (d Disabled) Subscribe(_ context.Context, email string, listID int) error {
	d.Log.Info("mail disabled, subscription skipped", zap.String("email", email), zap.Int("list_id", listID))
	return nil
}
