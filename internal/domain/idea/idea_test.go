package idea

import (
	"errors"
	"strings"
	"testing"

	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
)

func validIdea() Idea {
	return Idea{
		Name:                   "Shelf",
		ProblemStatement:       "Small bookshops cannot predict which titles will sell out.",
		TargetAudience:         "Independent bookshop owners in mid-sized cities.",
		UniqueValueProposition: "Demand forecasts built from local reading club data.",
		ProductDescription:     "A web dashboard that suggests weekly reorder quantities.",
	}
}

func TestValidateAcceptsValidIdea(t *testing.T) {
	if err := validIdea().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Idea)
		field string
	}{
		{"problem 19 chars", func(i *Idea) { i.ProblemStatement = strings.Repeat("a", 19) }, "problem_statement"},
		{"problem too long", func(i *Idea) { i.ProblemStatement = strings.Repeat("a", 501) }, "problem_statement"},
		{"audience too long", func(i *Idea) { i.TargetAudience = strings.Repeat("a", 301) }, "target_audience"},
		{"audience 19 chars", func(i *Idea) { i.TargetAudience = strings.Repeat("a", 19) }, "target_audience"},
		{"description 29 chars", func(i *Idea) { i.ProductDescription = strings.Repeat("a", 29) }, "product_description"},
		{"description too long", func(i *Idea) { i.ProductDescription = strings.Repeat("a", 1001) }, "product_description"},
		{"uvp blank", func(i *Idea) { i.UniqueValueProposition = "    " }, "unique_value_proposition"},
		{"description padded short", func(i *Idea) { i.ProductDescription = "   short text   " }, "product_description"},
		{"name too long", func(i *Idea) { i.Name = strings.Repeat("n", 101) }, "idea_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			i := validIdea()
			tc.edit(&i)
			err := i.Validate()
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) || len(verr.Fields) != 1 || verr.Fields[0].Field != tc.field {
				t.Fatalf("expected single error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestValidateCountsRunes(t *testing.T) {
	i := validIdea()
	// 20 runes, 40 bytes
	i.ProblemStatement = strings.Repeat("é", 20)
	if err := i.Validate(); err != nil {
		t.Fatalf("20 runes should pass: %v", err)
	}
	i.TargetAudience = strings.Repeat("日", 300)
	if err := i.Validate(); err != nil {
		t.Fatalf("300 runes should pass: %v", err)
	}
	i.ProblemStatement = strings.Repeat("é", 500)
	i.ProductDescription = strings.Repeat("ü", 30)
	if err := i.Validate(); err != nil {
		t.Fatalf("upper and lower bounds should pass: %v", err)
	}
}

func TestValidateReportsAllFields(t *testing.T) {
	var verr *apperr.ValidationError
	if !errors.As(Idea{}.Validate(), &verr) || len(verr.Fields) != 4 {
		t.Fatalf("expected four field errors, got %v", verr)
	}
}
