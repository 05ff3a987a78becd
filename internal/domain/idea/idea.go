package idea

import (
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
)

// Idea is the founder's description of a business idea. It is never stored
// on its own; its fields are copied into the Analysis.
type Idea struct {
	Name                   string `json:"idea_name,omitempty"`
	ProblemStatement       string `json:"problem_statement"`
	TargetAudience         string `json:"target_audience"`
	UniqueValueProposition string `json:"unique_value_proposition"`
	ProductDescription     string `json:"product_description"`
}

type bound struct {
	field    string
	min, max int
}

const (
	minFieldLen = 20
	maxNameLen  = 100
)

var (
	problemBound     = bound{"problem_statement", minFieldLen, 500}
	audienceBound    = bound{"target_audience", minFieldLen, 300}
	uvpBound         = bound{"unique_value_proposition", minFieldLen, 500}
	descriptionBound = bound{"product_description", 30, 1000}
)

// Normalize returns a copy with every field trimmed.
func (i Idea) Normalize() Idea {
	return Idea{
		Name:                   strings.TrimSpace(i.Name),
		ProblemStatement:       strings.TrimSpace(i.ProblemStatement),
		TargetAudience:         strings.TrimSpace(i.TargetAudience),
		UniqueValueProposition: strings.TrimSpace(i.UniqueValueProposition),
		ProductDescription:     strings.TrimSpace(i.ProductDescription),
	}
}

// Validate checks the trimmed field lengths in runes and reports every
// offending field at once.
func (i Idea) Validate() error {
	n := i.Normalize()
	verr := &apperr.ValidationError{}
	for _, f := range []struct {
		b bound
		v string
	}{
		{problemBound, n.ProblemStatement},
		{audienceBound, n.TargetAudience},
		{uvpBound, n.UniqueValueProposition},
		{descriptionBound, n.ProductDescription},
	} {
		l := utf8.RuneCountInString(f.v)
		switch {
		case l == 0:
			verr.Add(f.b.field, "is required")
		case l < f.b.min:
			verr.Add(f.b.field, "must be at least %d characters", f.b.min)
		case l > f.b.max:
			verr.Add(f.b.field, "must be at most %d characters", f.b.max)
		}
	}
	if utf8.RuneCountInString(n.Name) > maxNameLen {
		verr.Add("idea_name", "must be at most %d characters", maxNameLen)
	}
	return verr.OrNil()
}
