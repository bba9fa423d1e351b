package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/legalc/internal/legal/completion"
	"github.com/longkey1/legalc/internal/legal/prompt"
)

type fakeCompleter struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	return f.response, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestParseRiskScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  Score
		label string
	}{
		{name: "plain", text: "Overall.\nRisk Score: 7/10\n", want: Score{Value: 7, Parsed: true}, label: "7/10"},
		{name: "case insensitive", text: "risk score:3/10", want: Score{Value: 3, Parsed: true}, label: "3/10"},
		{name: "extra spaces", text: "RISK SCORE:   10/10", want: Score{Value: 10, Parsed: true}, label: "10/10"},
		{name: "first match wins", text: "Risk Score: 2/10 ... Risk Score: 9/10", want: Score{Value: 2, Parsed: true}, label: "2/10"},
		{name: "missing", text: "No score here.", want: Score{}, label: "unscored"},
		{name: "out of range", text: "Risk Score: 11/10", want: Score{}, label: "unscored"},
		{name: "zero", text: "Risk Score: 0/10", want: Score{}, label: "unscored"},
		{name: "different scale", text: "Risk Score: 4/5", want: Score{}, label: "unscored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRiskScore(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.label, got.String())
		})
	}
}

func TestScoreLevel(t *testing.T) {
	assert.Equal(t, "unknown", Score{}.Level())
	assert.Equal(t, "low", Score{Value: 3, Parsed: true}.Level())
	assert.Equal(t, "medium", Score{Value: 5, Parsed: true}.Level())
	assert.Equal(t, "high", Score{Value: 8, Parsed: true}.Level())
}

func TestAssessNDA(t *testing.T) {
	fc := &fakeCompleter{response: "## Findings\nMostly balanced.\nRisk Score: 3/10\n"}
	r := NewRiskAssessor(fc)

	res, err := r.Assess(context.Background(), "This NDA lasts 2 years...")

	require.NoError(t, err)
	assert.Equal(t, Score{Value: 3, Parsed: true}, res.Score)
	assert.Equal(t, fc.response, res.Text)
	assert.Equal(t, res.Score, r.Score())
	assert.Equal(t, fc.response, r.Result())
	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "This NDA lasts 2 years...")
}

func TestAssessWithoutScoreIsFlagged(t *testing.T) {
	fc := &fakeCompleter{response: "The document looks fine."}
	r := NewRiskAssessor(fc)

	res, err := r.Assess(context.Background(), "doc")

	require.NoError(t, err)
	assert.False(t, res.Score.Parsed)
	assert.Zero(t, res.Score.Value)
}

func TestAssessBackendFailure(t *testing.T) {
	cause := &completion.BackendError{Provider: "gemini", Err: errors.New("HTTP 500")}
	fc := &fakeCompleter{err: cause}
	r := NewRiskAssessor(fc)

	_, err := r.Assess(context.Background(), "doc")

	var notice *Notice
	require.ErrorAs(t, err, &notice)
	assert.Equal(t, "Error assessing risks", notice.Title)
	assert.NotContains(t, notice.Error(), "HTTP 500")
	assert.ErrorIs(t, err, completion.ErrBackend)
}

func TestEmptyInputIssuesNoRequest(t *testing.T) {
	fc := &fakeCompleter{response: "x"}
	ctx := context.Background()

	_, err := NewAnalyzer(fc).Analyze(ctx, "  ")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "No document text", inputErr.Title)

	_, err = NewRiskAssessor(fc).Assess(ctx, "")
	require.ErrorAs(t, err, &inputErr)

	_, err = NewResearcher(fc).Research(ctx, ResearchQuery{Query: "\n"})
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "Missing query", inputErr.Title)

	assert.Equal(t, 0, fc.calls())
}

func TestAnalyze(t *testing.T) {
	fc := &fakeCompleter{response: "analysis"}
	a := NewAnalyzer(fc)

	out, err := a.Analyze(context.Background(), "Lease between A and B")

	require.NoError(t, err)
	assert.Equal(t, "analysis", out)
	assert.Equal(t, prompt.Default().Analysis("Lease between A and B"), fc.prompts[0])
}

func TestAnalyzeFailureKeepsPreviousResult(t *testing.T) {
	fc := &fakeCompleter{response: "first"}
	a := NewAnalyzer(fc)

	_, err := a.Analyze(context.Background(), "doc")
	require.NoError(t, err)

	fc.err = errors.New("boom")
	_, err = a.Analyze(context.Background(), "doc")

	var notice *Notice
	require.ErrorAs(t, err, &notice)
	assert.Equal(t, "Error analyzing document", notice.Title)
	assert.Equal(t, "first", a.Result())
}

func TestDocumentParams(t *testing.T) {
	tests := []struct {
		name    string
		typ     DocumentType
		fields  map[string]string
		want    []prompt.Param
		wantErr string
	}{
		{
			name:   "nda with defaults",
			typ:    NDA,
			fields: map[string]string{"disclosingParty": "Acme", "receivingParty": "Beta"},
			want: []prompt.Param{
				{Key: "disclosingParty", Value: "Acme"},
				{Key: "receivingParty", Value: "Beta"},
				{Key: "purpose", Value: ""},
				{Key: "duration", Value: "2 years"},
				{Key: "governingLaw", Value: ""},
			},
		},
		{
			name: "employment salary",
			typ:  Employment,
			fields: map[string]string{
				"employer": "Acme", "employee": "Sam", "position": "Counsel", "salary": "90000",
			},
			want: []prompt.Param{
				{Key: "employer", Value: "Acme"},
				{Key: "employee", Value: "Sam"},
				{Key: "position", Value: "Counsel"},
				{Key: "startDate", Value: ""},
				{Key: "salary", Value: "$90000"},
				{Key: "benefits", Value: ""},
			},
		},
		{
			name: "service start date field",
			typ:  Service,
			fields: map[string]string{
				"serviceProvider": "Acme", "client": "Beta", "services": "Audit", "startDate2": "2025-01-01",
			},
			want: []prompt.Param{
				{Key: "serviceProvider", Value: "Acme"},
				{Key: "client", Value: "Beta"},
				{Key: "services", Value: "Audit"},
				{Key: "paymentTerms", Value: ""},
				{Key: "startDate", Value: "2025-01-01"},
				{Key: "endDate", Value: ""},
			},
		},
		{
			name:    "nda missing party",
			typ:     NDA,
			fields:  map[string]string{"disclosingParty": "Acme"},
			wantErr: "receivingParty",
		},
		{
			name:    "custom missing requirements",
			typ:     Custom,
			fields:  map[string]string{"requirements": "   "},
			wantErr: "requirements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DocumentParams(tt.typ, tt.fields)
			if tt.wantErr != "" {
				var inputErr *InputError
				require.ErrorAs(t, err, &inputErr)
				assert.Equal(t, tt.wantErr, inputErr.Field)
				assert.Equal(t, "Missing information", inputErr.Title)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDocumentType(t *testing.T) {
	got, err := ParseDocumentType(" NDA ")
	require.NoError(t, err)
	assert.Equal(t, NDA, got)
	assert.Equal(t, "Non-Disclosure Agreement", got.Label())

	_, err = ParseDocumentType("lease")
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Description, "nda, employment, service, custom")
}

func TestGenerate(t *testing.T) {
	fc := &fakeCompleter{response: "NON-DISCLOSURE AGREEMENT ..."}
	g := NewGenerator(fc)

	doc, err := g.Generate(context.Background(), NDA, map[string]string{
		"disclosingParty": "Acme", "receivingParty": "Beta", "duration": "3",
	})

	require.NoError(t, err)
	assert.Equal(t, "Non-Disclosure Agreement", doc.Label)
	assert.Equal(t, "nda_document.txt", doc.Filename())
	assert.Contains(t, fc.prompts[0], "Create a professional Non-Disclosure Agreement")
	assert.Contains(t, fc.prompts[0], "duration: 3 years")
}

func TestJurisdictionAndTimeframe(t *testing.T) {
	assert.Equal(t, "United States (Federal)", JurisdictionName("us-federal", ""))
	assert.Equal(t, "United States (Texas)", JurisdictionName("us-state", "Texas"))
	assert.Equal(t, "India (Kerala)", JurisdictionName("india", "Kerala"))
	assert.Equal(t, "International Law", JurisdictionName("international", ""))
	assert.Equal(t, "Mars", JurisdictionName("Mars", ""))

	assert.Equal(t, "All Time", TimeframeText("all"))
	assert.Equal(t, "Last 20 Years", TimeframeText("20"))
	assert.Equal(t, "7", TimeframeText("7"))
}

func TestResearchDefaults(t *testing.T) {
	fc := &fakeCompleter{response: "cases"}
	r := NewResearcher(fc)

	out, err := r.Research(context.Background(), ResearchQuery{Query: "tenant eviction", State: "Kerala"})

	require.NoError(t, err)
	assert.Equal(t, "cases", out)
	assert.Contains(t, fc.prompts[0], "Jurisdiction: India (Kerala)")
	assert.Contains(t, fc.prompts[0], "Timeframe: All Time")
}

type blockingCompleter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	b.started <- struct{}{}
	<-b.release
	return "ok", nil
}

func TestWorkflowIsSingleFlight(t *testing.T) {
	bc := &blockingCompleter{started: make(chan struct{}, 1), release: make(chan struct{})}
	a := NewAnalyzer(bc)

	done := make(chan error, 1)
	go func() {
		_, err := a.Analyze(context.Background(), "doc")
		done <- err
	}()
	<-bc.started

	_, err := a.Analyze(context.Background(), "doc")
	assert.ErrorIs(t, err, ErrBusy)

	close(bc.release)
	assert.NoError(t, <-done)
}
