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

const brevoURL = "https://api.brevo.com/v3"

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      address        `json:"sender"`
	To          []address      `json:"to"`
	TemplateID  int            `json:"templateId,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

type brevoContact struct {
	Email         string `json:"email"`
	ListIDs       []int  `json:"listIds"`
	UpdateEnabled bool   `json:"updateEnabled"`
}

type brevoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Brevo sends through the Brevo v3 REST API.
type Brevo struct {
	client *resty.Client
	opts   Options
	log    *zap.Logger
}

func NewBrevo(opts Options, log *zap.Logger) *Brevo {
	opts.defaults()
	base := opts.BaseURL
	if base == "" {
		base = brevoURL
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("accept", "application/json").
		SetHeader("content-type", "application/json").
		SetHeader("api-key", opts.APIKey)
	return &Brevo{client: c, opts: opts, log: log}
}

func (b *Brevo) SendReportLink(ctx context.Context, link notify.ReportLink) error {
	msg := brevoEmail{
		Sender: address{Email: b.opts.From, Name: b.opts.FromName},
		To:     []address{{Email: link.Email}},
	}
	if b.opts.TemplateID > 0 {
		msg.TemplateID = b.opts.TemplateID
		msg.Params = map[string]any{"reportUrl": link.ReportURL, "score": link.TotalScore}
	} else {
		html, err := htmlBody(link)
		if err != nil {
			return err
		}
		msg.Subject = subject
		msg.HTMLContent = html
		msg.TextContent = textBody(link)
	}

	var apiErr brevoError
	resp, err := b.client.R().SetContext(ctx).SetBody(msg).SetError(&apiErr).Post("/smtp/email")
	if err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}
	if resp.IsError() {
		return brevoFailure("send", resp.StatusCode(), apiErr)
	}
	b.log.Info("report mail sent", zap.String("provider", "brevo"), zap.Int("template_id", msg.TemplateID))
	return nil
}

func (b *Brevo) Subscribe(ctx context.Context, email string, listID int) error {
	var apiErr brevoError
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(brevoContact{Email: email, ListIDs: []int{listID}, UpdateEnabled: true}).
		SetError(&apiErr).
		Post("/contacts")
	if err != nil {
		return fmt.Errorf("brevo subscribe: %w", err)
	}
	if resp.IsError() {
		// contact sudah ada, bukan error
		if apiErr.Code == "duplicate_parameter" {
			return nil
		}
		return brevoFailure("subscribe", resp.StatusCode(), apiErr)
	}
	b.log.Info("contact subscribed", zap.Int("list_id", listID))
	return nil
}

func brevoFailure(op string, status int, e brevoError) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("brevo %s: %w", op, ErrRateLimited)
	}
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Errorf("brevo %s: status %d: %s", op, status, msg)
}
