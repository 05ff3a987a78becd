package mail

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/bryanwahyu/launchlab/internal/domain/notify"
)

const resendURL = "https://api.resend.com"

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Resend sends through the Resend REST API. It has no numeric contact lists,
// so Subscribe is not available.
type Resend struct {
	client *resty.Client
	opts   Options
	log    *zap.Logger
}

func NewResend(opts Options, log *zap.Logger) *Resend {
	opts.defaults()
	base := opts.BaseURL
	if base == "" {
		base = resendURL
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.APIKey).
		SetHeader("content-type", "application/json")
	return &Resend{client: c, opts: opts, log: log}
}

func (r *Resend) SendReportLink(ctx context.Context, link notify.ReportLink) error {
	html, err := htmlBody(link)
	if err != nil {
		return err
	}
	msg := resendEmail{
		From:    fmt.Sprintf("%s <%s>", r.opts.FromName, r.opts.From),
		To:      []string{link.Email},
		Subject: subject,
		HTML:    html,
		Text:    textBody(link),
	}
	var apiErr resendError
	resp, err := r.client.R().SetContext(ctx).SetBody(msg).SetError(&apiErr).Post("/emails")
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("resend send: %w", ErrRateLimited)
	}
	if resp.IsError() {
		return fmt.Errorf("resend send: status %d: %s", resp.StatusCode(), apiErr.Message)
	}
	r.log.Info("report mail sent", zap.String("provider", "resend"))
	return nil
}

func (r *Resend) Subscribe(context.Context, string, int) error {
	return fmt.Errorf("resend subscribe: %w", ErrUnsupported)
}
