package artifact

import (
	"context"
	"log/slog"
	"os"
)

// Link is what the report shows for one artifact kind. An empty Path means
// absent; a non-empty Path always names an existing file.
type Link struct {
	Kind string
	Path string
}

// Present reports whether the link points at a file.
func (l Link) Present() bool { return l.Path != "" }

// Diagrams turns a resolved Set into report links, converting graph
// descriptions to images.
type Diagrams struct {
	Converter Converter

	// Overwrite re-converts even when an up-to-date image exists.
	Overwrite bool

	Logger *slog.Logger
}

func (d *Diagrams) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Render returns one link per entry, in the same order. Graph kinds link to
// their rendered image; other kinds link to the artifact itself.
func (d *Diagrams) Render(ctx context.Context, set Set) []Link {
	links := make([]Link, len(set))
	for i, e := range set {
		links[i] = Link{Kind: e.Kind.Name}
		if !e.Present() || !fileExists(e.Path) {
			continue
		}
		if !e.Kind.Graph {
			links[i].Path = e.Path
			continue
		}
		if d.Converter == nil {
			continue
		}
		links[i].Path = d.convert(ctx, e)
	}
	return links
}

func (d *Diagrams) convert(ctx context.Context, e Entry) string {
	out := d.Converter.Output(e.Path)
	if !d.Overwrite && upToDate(out, e.Path) {
		d.logger().Debug("image already rendered", "kind", e.Kind.Name, "path", out)
		return out
	}
	res := d.Converter.Convert(ctx, e.Path)
	if !res.OK() {
		err := &ConversionError{Kind: e.Kind.Name, Source: e.Path, Reason: res.Reason}
		d.logger().Warn("diagram conversion failed", "error", err, "diagnostics", res.Diagnostics)
		return ""
	}
	if !fileExists(res.Path) {
		d.logger().Warn("diagram converter reported success without output", "kind", e.Kind.Name, "path", res.Path)
		return ""
	}
	return res.Path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// upToDate reports whether out exists and is not older than src.
func upToDate(out, src string) bool {
	oi, err := os.Stat(out)
	if err != nil || !oi.Mode().IsRegular() {
		return false
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !oi.ModTime().Before(si.ModTime())
}
