// Package extract turns uploaded files into plain text for the controllers.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// DefaultMaxBytes is the upload size limit.
const DefaultMaxBytes = 10 << 20

// AcceptedExtensions lists the extensions Extract accepts.
var AcceptedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".txt"}

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("invalid file type")
	ErrNoConverter     = errors.New("no converter configured")
)

// Kind groups accepted files by how their text is obtained.
type Kind string

const (
	KindText  Kind = "text"
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

var extensionKinds = map[string]Kind{
	".txt":  KindText,
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
}

var kindMIMEs = map[Kind][]string{
	KindText:  {"text/plain"},
	KindPDF:   {"application/pdf"},
	KindImage: {"image/png", "image/jpeg"},
}

// File is an uploaded file.
type File struct {
	Name string
	Data []byte
}

// Result is the extracted text with the detected content type.
type Result struct {
	Text string
	MIME string
	Kind Kind
}

// Converter obtains text from a file that is not plain text, e.g. by PDF
// parsing or OCR.
type Converter interface {
	Convert(ctx context.Context, f File) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, f File) (string, error)

func (fn ConverterFunc) Convert(ctx context.Context, f File) (string, error) {
	return fn(ctx, f)
}

// Extractor validates uploads and extracts their text.
type Extractor struct {
	maxBytes   int64
	converters map[Kind]Converter
	logger     *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxBytes sets the upload size limit.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// WithConverter registers the converter for a kind.
func WithConverter(kind Kind, c Converter) Option {
	return func(e *Extractor) {
		e.converters[kind] = c
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor. Without converters only text files can be read.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxBytes:   DefaultMaxBytes,
		converters: make(map[Kind]Converter),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxBytes returns the configured size limit.
func (e *Extractor) MaxBytes() int64 {
	return e.maxBytes
}

// Extract validates f and returns its text.
func (e *Extractor) Extract(ctx context.Context, f File) (Result, error) {
	if int64(len(f.Data)) > e.maxBytes {
		return Result{}, fmt.Errorf("%w: maximum file size is %dMB", ErrTooLarge, e.maxBytes>>20)
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	kind, ok := extensionKinds[ext]
	if !ok {
		return Result{}, fmt.Errorf("%w: accepted file types: %s", ErrUnsupportedType, strings.Join(AcceptedExtensions, ","))
	}

	mtype := mimetype.Detect(f.Data)
	if !matches(mtype, kindMIMEs[kind]) {
		e.logger.Info("upload content does not match its extension",
			zap.String("name", f.Name),
			zap.String("detected", mtype.String()))
		return Result{}, fmt.Errorf("%w: %s content is %s", ErrUnsupportedType, ext, mtype.String())
	}

	res := Result{MIME: mtype.String(), Kind: kind}
	if kind == KindText {
		if !utf8.Valid(f.Data) {
			return Result{}, fmt.Errorf("%w: text file is not valid UTF-8", ErrUnsupportedType)
		}
		res.Text = string(f.Data)
		return res, nil
	}

	conv, ok := e.converters[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w for %s files", ErrNoConverter, kind)
	}
	text, err := conv.Convert(ctx, f)
	if err != nil {
		return Result{}, fmt.Errorf("error converting %s: %w", f.Name, err)
	}
	res.Text = text
	e.logger.Debug("file converted",
		zap.String("name", f.Name),
		zap.String("kind", string(kind)),
		zap.Int("text_length", len(text)))
	return res, nil
}

// matches reports whether m or one of its parents is in allowed.
func matches(m *mimetype.MIME, allowed []string) bool {
	for ; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}
