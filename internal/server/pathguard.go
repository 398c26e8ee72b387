package server

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrForbidden = errors.New("server: path outside served root")

// Guard binds request paths to locations under Root. It never touches the
// filesystem.
type Guard struct {
	Root     string // absolute, cleaned
	Reserved string
}

func NewGuard(root, reserved string) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Guard{Root: abs, Reserved: reserved}, nil
}

// Resolved is a request path bound to the served root.
type Resolved struct {
	Abs      string
	Rel      string // slash separated, "" for the root itself
	Segments []string
}

// Resolve maps a decoded, relative request path into the root. Empty
// segments, NUL and backslash are refused outright; anything that cleans
// to a location outside Root is refused after normalization.
func (g *Guard) Resolve(p string) (Resolved, error) {
	if strings.ContainsAny(p, "\x00\\") {
		return Resolved{}, ErrForbidden
	}
	if p != "" {
		for _, seg := range strings.Split(p, "/") {
			if seg == "" {
				return Resolved{}, ErrForbidden
			}
		}
	}

	abs := filepath.Join(g.Root, filepath.FromSlash(p))
	rel, err := filepath.Rel(g.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Resolved{}, ErrForbidden
	}
	if rel == "." {
		return Resolved{Abs: g.Root}, nil
	}
	rel = filepath.ToSlash(rel)
	return Resolved{Abs: abs, Rel: rel, Segments: strings.Split(rel, "/")}, nil
}

// IsReserved reports whether r lies in the reserved subtree. Case-folded so
// "Private" does not slip through on case-insensitive filesystems.
func (g *Guard) IsReserved(r Resolved) bool {
	return g.Reserved != "" && len(r.Segments) > 0 && strings.EqualFold(r.Segments[0], g.Reserved)
}
