package artifact

import (
	"os"
	"path/filepath"

	"github.com/roach88/synthsweep/internal/flow"
)

// Entry is one resolved artifact. An empty Path means absent.
type Entry struct {
	Kind Kind
	Path string
}

// Present reports whether the artifact was found.
func (e Entry) Present() bool { return e.Path != "" }

// Set holds one entry per kind, in kind order.
type Set []Entry

// Lookup returns the entry for a kind name.
func (s Set) Lookup(name string) (Entry, bool) {
	for _, e := range s {
		if e.Kind.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolver finds artifacts in a run's stage directory.
type Resolver struct {
	Kinds []Kind
}

// NewResolver returns a resolver for kinds, or DefaultKinds when empty.
func NewResolver(kinds []Kind) Resolver {
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}
	return Resolver{Kinds: kinds}
}

// Resolve returns one entry per kind. Runs that did not succeed resolve to
// an all-absent set.
func (r Resolver) Resolve(run *flow.Run) Set {
	set := make(Set, len(r.Kinds))
	for i, k := range r.Kinds {
		set[i] = Entry{Kind: k}
		if run == nil || !run.Succeeded() || run.StageDir == "" {
			continue
		}
		path := filepath.Join(run.StageDir, k.FileFor(run.Design))
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			set[i].Path = path
		}
	}
	return set
}
