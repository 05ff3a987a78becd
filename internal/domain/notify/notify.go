package notify

import (
	"context"
	"regexp"
)

// ReportLink is the mail sent once a report can be opened.
type ReportLink struct {
	Email      string
	IdeaName   string
	ReportURL  string
	TotalScore int
}

// Mailer port
type Mailer interface {
	SendReportLink(ctx context.Context, link ReportLink) error
	Subscribe(ctx context.Context, email string, listID int) error
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail is a shape check only; deliverability is the provider's problem.
func ValidEmail(email string) bool {
	return len(email) <= 254 && emailPattern.MatchString(email)
}
