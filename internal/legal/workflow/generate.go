package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/longkey1/legalc/internal/legal/prompt"
)

// DocumentType selects a generation form.
type DocumentType string

const (
	NDA        DocumentType = "nda"
	Employment DocumentType = "employment"
	Service    DocumentType = "service"
	Custom     DocumentType = "custom"
)

// DocumentTypes lists the supported types in display order.
var DocumentTypes = []DocumentType{NDA, Employment, Service, Custom}

// Form field defaults applied when the caller leaves them empty.
var fieldDefaults = map[string]string{
	"duration": "2",
	"salary":   "50000",
}

type paramSpec struct {
	key    string
	field  string
	format string
}

type docSpec struct {
	label    string
	required []string
	params   []paramSpec
}

var docSpecs = map[DocumentType]docSpec{
	NDA: {
		label:    "Non-Disclosure Agreement",
		required: []string{"disclosingParty", "receivingParty"},
		params: []paramSpec{
			{key: "disclosingParty"},
			{key: "receivingParty"},
			{key: "purpose"},
			{key: "duration", format: "%s years"},
			{key: "governingLaw"},
		},
	},
	Employment: {
		label:    "Employment Contract",
		required: []string{"employer", "employee", "position"},
		params: []paramSpec{
			{key: "employer"},
			{key: "employee"},
			{key: "position"},
			{key: "startDate"},
			{key: "salary", format: "$%s"},
			{key: "benefits"},
		},
	},
	Service: {
		label:    "Service Agreement",
		required: []string{"serviceProvider", "client", "services"},
		params: []paramSpec{
			{key: "serviceProvider"},
			{key: "client"},
			{key: "services"},
			{key: "paymentTerms"},
			{key: "startDate", field: "startDate2"},
			{key: "endDate"},
		},
	},
	Custom: {
		label:    "Custom Document",
		required: []string{"requirements"},
		params: []paramSpec{
			{key: "requirements"},
		},
	},
}

// ParseDocumentType validates a type name.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := docSpecs[t]; !ok {
		return "", &InputError{
			Field:       "type",
			Title:       "Unknown document type",
			Description: fmt.Sprintf("Document type must be one of %s.", documentTypeList()),
		}
	}
	return t, nil
}

func documentTypeList() string {
	names := make([]string, len(DocumentTypes))
	for i, t := range DocumentTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Label returns the human readable document name.
func (t DocumentType) Label() string {
	return docSpecs[t].label
}

// Required returns the form fields that must be filled for t.
func (t DocumentType) Required() []string {
	return slices.Clone(docSpecs[t].required)
}

// Fields returns every form field t reads.
func (t DocumentType) Fields() []string {
	spec := docSpecs[t]
	fields := make([]string, 0, len(spec.params))
	for _, p := range spec.params {
		fields = append(fields, p.fieldName())
	}
	return fields
}

func (p paramSpec) fieldName() string {
	if p.field != "" {
		return p.field
	}
	return p.key
}

// DocumentParams validates fields for t and returns the ordered prompt
// parameters.
func DocumentParams(t DocumentType, fields map[string]string) ([]prompt.Param, error) {
	spec, ok := docSpecs[t]
	if !ok {
		return nil, &InputError{Field: "type", Title: "Unknown document type", Description: "Please choose a document type."}
	}

	for _, name := range spec.required {
		if blank(fields[name]) {
			desc := "Please fill in all required fields."
			if t == Custom {
				desc = "Please describe your document requirements."
			}
			return nil, &InputError{Field: name, Title: "Missing information", Description: desc}
		}
	}

	params := make([]prompt.Param, 0, len(spec.params))
	for _, p := range spec.params {
		value := strings.TrimSpace(fields[p.fieldName()])
		if value == "" {
			value = fieldDefaults[p.key]
		}
		if p.format != "" {
			value = fmt.Sprintf(p.format, value)
		}
		params = append(params, prompt.Param{Key: p.key, Value: value})
	}
	return params, nil
}

// Document is a generated legal document.
type Document struct {
	Type  DocumentType
	Label string
	Text  string
}

// Filename is the default export name for the document.
func (d Document) Filename() string {
	return string(d.Type) + "_document.txt"
}

// Generator drafts legal documents from form fields.
type Generator struct {
	base
}

// NewGenerator creates a Generator.
func NewGenerator(client Completer, opts ...Option) *Generator {
	g := &Generator{}
	g.init("generate", client, opts)
	return g
}

// Generate validates fields for t and drafts the document.
func (g *Generator) Generate(ctx context.Context, t DocumentType, fields map[string]string) (Document, error) {
	params, err := DocumentParams(t, fields)
	if err != nil {
		return Document{}, err
	}

	text, err := g.run(ctx, g.prompts.Document(t.Label(), params),
		"Error generating document",
		"There was an error generating your document. Please try again.")
	if err != nil {
		return Document{}, err
	}
	return Document{Type: t, Label: t.Label(), Text: text}, nil
}
