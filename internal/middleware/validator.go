package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/launchlab/internal/domain/jobs"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// SanitizeString removes NUL bytes. Other characters, line endings
// included, are left as the user typed them.
func SanitizeString(input string) string {
	return strings.ReplaceAll(input, "\x00", "")
}

// ValidateID checks analysis and task ids taken from the URL.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id format")
	}
	return nil
}

// ValidateTaskStatus accepts an empty filter or a known task status.
func ValidateTaskStatus(status string) error {
	switch jobs.Status(status) {
	case "", jobs.StatusPending, jobs.StatusRunning, jobs.StatusDone, jobs.StatusFailed:
		return nil
	}
	return fmt.Errorf("invalid status: %s (allowed: pending, running, done, failed)", status)
}

// ValidateListID checks a mailing list id.
func ValidateListID(id int) error {
	if id <= 0 {
		return fmt.Errorf("listId must be a positive number")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ValidatePage validates the page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
