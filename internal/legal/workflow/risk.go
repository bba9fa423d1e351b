package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

var riskScorePattern = regexp.MustCompile(`(?i)Risk Score:\s*(\d+)/10`)

// Score is a risk score extracted from model output. Parsed is false when the
// text carried no usable score; Value is then zero and must not be shown as a
// real score.
type Score struct {
	Value  int
	Parsed bool
}

func (s Score) String() string {
	if !s.Parsed {
		return "unscored"
	}
	return fmt.Sprintf("%d/10", s.Value)
}

// Level buckets a parsed score the way the assessment view colours it.
func (s Score) Level() string {
	switch {
	case !s.Parsed:
		return "unknown"
	case s.Value <= 3:
		return "low"
	case s.Value <= 6:
		return "medium"
	default:
		return "high"
	}
}

// ParseRiskScore finds the first "Risk Score: N/10" in text. Values outside
// 1..10 are treated as unparsed.
func ParseRiskScore(text string) Score {
	m := riskScorePattern.FindStringSubmatch(text)
	if m == nil {
		return Score{}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 10 {
		return Score{}
	}
	return Score{Value: n, Parsed: true}
}

// RiskResult is the assessment text with its extracted score.
type RiskResult struct {
	Text  string
	Score Score
}

// RiskAssessor runs risk assessments and extracts the overall score.
type RiskAssessor struct {
	base

	scoreMu sync.Mutex
	score   Score
}

// NewRiskAssessor creates a RiskAssessor.
func NewRiskAssessor(client Completer, opts ...Option) *RiskAssessor {
	r := &RiskAssessor{}
	r.init("risk", client, opts)
	return r
}

// Assess sends the risk prompt for document and parses the score.
func (r *RiskAssessor) Assess(ctx context.Context, document string) (RiskResult, error) {
	if blank(document) {
		return RiskResult{}, &InputError{
			Field:       "document",
			Title:       "No document text",
			Description: "Please upload a document or enter text to assess.",
		}
	}

	text, err := r.run(ctx, r.prompts.Risk(document),
		"Error assessing risks",
		"There was an error analyzing your document. Please try again.")
	if err != nil {
		return RiskResult{}, err
	}

	score := ParseRiskScore(text)
	if !score.Parsed {
		r.logger.Warn("risk score missing from assessment",
			zap.Int("result_length", len(text)))
	}

	r.scoreMu.Lock()
	r.score = score
	r.scoreMu.Unlock()

	return RiskResult{Text: text, Score: score}, nil
}

// Score returns the score of the last successful assessment.
func (r *RiskAssessor) Score() Score {
	r.scoreMu.Lock()
	defer r.scoreMu.Unlock()
	return r.score
}
