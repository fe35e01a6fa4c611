// Package stub generates the CWL tool document for a leaf step, dispatching
// on the step's implementation language.
package stub

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/me/phenogen/internal/logging"
	"github.com/me/phenogen/pkg/cwl"
	"github.com/me/phenogen/pkg/model"
)

// Request carries the step metadata a template needs.
type Request struct {
	Language        string
	Name            string
	Type            string
	Doc             string
	InputDoc        string
	OutputExtension string
	OutputDoc       string
}

// Dispatcher selects a Template by language and renders it.
type Dispatcher struct {
	templates    map[string]Template
	allowUnknown bool
	logger       *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAllowUnknownLanguages makes unknown languages render as an empty
// document instead of failing with *model.UnsupportedLanguageError.
func WithAllowUnknownLanguages(allow bool) Option {
	return func(d *Dispatcher) {
		d.allowUnknown = allow
	}
}

// WithTemplate registers or replaces the template for a language.
func WithTemplate(language string, t Template) Option {
	return func(d *Dispatcher) {
		d.templates[language] = t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher returns a Dispatcher with the python, knime and js
// templates registered.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		templates: map[string]Template{
			"python": Python,
			"knime":  KNIME,
			"js":     JS,
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "stub")
	return d
}

// Languages returns the registered languages, sorted.
func (d *Dispatcher) Languages() []string {
	langs := make([]string, 0, len(d.templates))
	for l := range d.templates {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Generate renders the tool document for one leaf step.
func (d *Dispatcher) Generate(req Request) (string, error) {
	tmpl, ok := d.templates[req.Language]
	if !ok {
		if d.allowUnknown {
			d.logger.Warn("no template for language, emitting empty stub", "language", req.Language, "step", req.Name)
			return "", nil
		}
		return "", &model.UnsupportedLanguageError{Language: req.Language}
	}

	// The extension ends up in the output glob.
	if err := CheckExpressions([]string{req.OutputExtension}); err != nil {
		return "", &model.MalformedStepError{Reason: "output extension: " + err.Error()}
	}

	tool := tmpl(req)
	if err := CheckExpressions(tool.Expressions()); err != nil {
		return "", fmt.Errorf("%s template for %q: %w", req.Language, req.Name, err)
	}
	content, err := cwl.Marshal(tool)
	if err != nil {
		return "", fmt.Errorf("%s template for %q: %w", req.Language, req.Name, err)
	}
	d.logger.Debug("rendered stub", "language", req.Language, "step", req.Name, "bytes", len(content))
	return content, nil
}
