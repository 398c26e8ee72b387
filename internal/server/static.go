package server

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"httplab/internal/wire"
)

// StaticHandler serves, writes and deletes regular files under the guard's
// root. The reserved subtree is refused for every method.
type StaticHandler struct {
	Guard  *Guard
	Logger *log.Logger
}

func (h *StaticHandler) Serve(req *wire.Request, target Resolved) *wire.Response {
	if h.Guard.IsReserved(target) {
		return wire.Status(wire.StatusForbidden)
	}
	switch req.Method {
	case wire.MethodGet, wire.MethodHead:
		return h.get(req, target)
	case wire.MethodPut, wire.MethodPost:
		return h.put(req, target)
	case wire.MethodDelete:
		return h.delete(target)
	default:
		return wire.Status(wire.StatusMethodNotAllowed)
	}
}

func (h *StaticHandler) get(req *wire.Request, target Resolved) *wire.Response {
	info, err := os.Stat(target.Abs)
	if err != nil || !info.Mode().IsRegular() {
		return wire.Status(wire.StatusNotFound)
	}

	mtime := info.ModTime().Truncate(time.Second)
	if ims := req.Header.Get("If-Modified-Since"); ims != "" {
		if since, err := wire.ParseTime(ims); err == nil && !mtime.After(since) {
			return wire.NotModified()
		}
	}

	content, err := os.ReadFile(target.Abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wire.Status(wire.StatusNotFound)
		}
		h.Logger.Printf("static: read %s: %v", target.Rel, err)
		return wire.Status(wire.StatusInternalServerError)
	}

	return &wire.Response{
		Status: wire.StatusOK,
		Header: []wire.Field{
			{Name: "Content-Type", Value: contentTypeFor(target.Abs)},
			{Name: "Last-Modified", Value: wire.FormatTime(mtime)},
		},
		Body: content,
	}
}

// put stores the body verbatim. Existence is checked before the write so
// the status tells the client whether it created or replaced the file.
func (h *StaticHandler) put(req *wire.Request, target Resolved) *wire.Response {
	existed := false
	info, err := os.Stat(target.Abs)
	switch {
	case err == nil && !info.Mode().IsRegular():
		h.Logger.Printf("static: write %q: not a regular file", target.Rel)
		return wire.Status(wire.StatusInternalServerError)
	case err == nil:
		existed = true
	case !errors.Is(err, fs.ErrNotExist):
		h.Logger.Printf("static: stat %s: %v", target.Rel, err)
		return wire.Status(wire.StatusInternalServerError)
	}

	if err := writeFileAtomic(target.Abs, req.Body, 0644); err != nil {
		h.Logger.Printf("static: write %s: %v", target.Rel, err)
		return wire.Status(wire.StatusInternalServerError)
	}

	if existed {
		return wire.Text(wire.StatusOK, "File "+target.Rel+" was successfully updated")
	}
	return wire.Text(wire.StatusCreated, "File "+target.Rel+" was successfully created")
}

func (h *StaticHandler) delete(target Resolved) *wire.Response {
	info, err := os.Stat(target.Abs)
	if err != nil || !info.Mode().IsRegular() {
		return wire.Status(wire.StatusNotFound)
	}
	if err := os.Remove(target.Abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wire.Status(wire.StatusNotFound)
		}
		h.Logger.Printf("static: delete %s: %v", target.Rel, err)
		return wire.Status(wire.StatusInternalServerError)
	}
	return wire.Text(wire.StatusOK, "File "+target.Rel+" was successfully deleted")
}
