package workflow

import (
	"context"
	"fmt"
)

// Defaults used when a research request leaves the selection empty.
const (
	DefaultJurisdiction = "india"
	DefaultTimeframe    = "all"
)

var jurisdictionNames = map[string]string{
	"us-federal":    "United States (Federal)",
	"eu":            "European Union",
	"uk":            "United Kingdom",
	"canada":        "Canada",
	"australia":     "Australia",
	"international": "International Law",
}

var timeframeTexts = map[string]string{
	"all": "All Time",
	"5":   "Last 5 Years",
	"10":  "Last 10 Years",
	"20":  "Last 20 Years",
}

// JurisdictionName expands a jurisdiction code. Codes that take a state
// ("us-state", "india") include it in parentheses; unknown codes pass through.
func JurisdictionName(code, state string) string {
	switch code {
	case "us-state":
		return fmt.Sprintf("United States (%s)", state)
	case "india":
		return fmt.Sprintf("India (%s)", state)
	}
	if name, ok := jurisdictionNames[code]; ok {
		return name
	}
	return code
}

// TimeframeText expands a timeframe code; unknown codes pass through.
func TimeframeText(code string) string {
	if text, ok := timeframeTexts[code]; ok {
		return text
	}
	return code
}

// ResearchQuery is one precedent search.
type ResearchQuery struct {
	Query        string
	Jurisdiction string
	State        string
	Timeframe    string
}

// Researcher searches for precedents and case law.
type Researcher struct {
	base
}

// NewResearcher creates a Researcher.
func NewResearcher(client Completer, opts ...Option) *Researcher {
	r := &Researcher{}
	r.init("research", client, opts)
	return r
}

// Research runs q against the model.
func (r *Researcher) Research(ctx context.Context, q ResearchQuery) (string, error) {
	if blank(q.Query) {
		return "", &InputError{
			Field:       "query",
			Title:       "Missing query",
			Description: "Please enter a research query.",
		}
	}

	jurisdiction := q.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = DefaultJurisdiction
	}
	timeframe := q.Timeframe
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}

	text := r.prompts.Research(q.Query, JurisdictionName(jurisdiction, q.State), TimeframeText(timeframe))
	return r.run(ctx, text,
		"Error researching precedents",
		"There was an error processing your query. Please try again.")
}
