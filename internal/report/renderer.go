package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// DefaultTemplate is the built-in Markdown report.
const DefaultTemplate = "report.md.tmpl"

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// Renderer renders a Context through a named template.
type Renderer struct {
	// Template is the template file name. Defaults to DefaultTemplate.
	Template string

	// SearchPath lists directories searched in order before the built-in
	// templates.
	SearchPath []string

	Logger *slog.Logger
}

type executor interface {
	Execute(w io.Writer, data any) error
}

var funcs = map[string]any{
	"cell": func(l ArtifactLink) string {
		if !l.Present() {
			return "absent"
		}
		return "[" + l.Kind + "](" + l.Link + ")"
	},
	"join": strings.Join,
	"md":   escapeMarkdown,
}

var markdownCell = strings.NewReplacer(`\`, `\\`, "|", `\|`, "\r\n", " ", "\n", " ")

// escapeMarkdown makes s safe inside a Markdown table cell.
func escapeMarkdown(s string) string { return markdownCell.Replace(s) }

func (r *Renderer) name() string {
	if r.Template == "" {
		return DefaultTemplate
	}
	return r.Template
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Lookup returns the template source and where it came from.
func (r *Renderer) Lookup() (src []byte, origin string, err error) {
	name := r.name()
	if filepath.IsAbs(name) {
		src, err = os.ReadFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrTemplateNotFound
		}
		return src, name, err
	}
	for _, dir := range r.SearchPath {
		path := filepath.Join(dir, name)
		src, err = os.ReadFile(path)
		if err == nil {
			return src, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
	}
	src, err = builtinTemplates.ReadFile("templates/" + filepath.ToSlash(name))
	if err != nil {
		return nil, "", ErrTemplateNotFound
	}
	return src, "builtin:" + name, nil
}

func (r *Renderer) parse() (executor, error) {
	src, origin, err := r.Lookup()
	if err != nil {
		return nil, err
	}
	r.logger().Debug("using report template", "template", origin)
	name := r.name()
	if strings.HasSuffix(strings.TrimSuffix(name, ".tmpl"), ".html") {
		return htmltemplate.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(src))
	}
	return template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(src))
}

// Render returns the rendered report.
func (r *Renderer) Render(ctx Context) ([]byte, error) {
	tmpl, err := r.parse()
	if err != nil {
		return nil, &RenderError{Template: r.name(), Err: err}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, &RenderError{Template: r.name(), Err: err}
	}
	return buf.Bytes(), nil
}

// WriteFile renders ctx and replaces path with the result. Nothing is
// written when rendering fails.
func (r *Renderer) WriteFile(path string, ctx Context) error {
	out, err := r.Render(ctx)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, out); err != nil {
		return &RenderError{Template: r.name(), Err: err}
	}
	return nil
}

// WriteJSON writes the canonical JSON form of ctx to path.
func WriteJSON(path string, ctx Context) error {
	data, err := ctx.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("marshal report context: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
