package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"httplab/internal/wire"
)

// ResourceAPI serves the JSON resource store. Paths arrive with the mount
// prefix already removed: zero segments is the whole document, one is a
// category, two is a category and an id.
type ResourceAPI struct {
	Store  *ResourceStore
	Logger *log.Logger
}

type resourceRoute struct {
	segments int
	method   string
}

type resourceHandler func(a *ResourceAPI, req *wire.Request, seg []string) *wire.Response

var resourceRoutes = map[resourceRoute]resourceHandler{
	{0, wire.MethodGet}:    (*ResourceAPI).getDocument,
	{0, wire.MethodHead}:   (*ResourceAPI).getDocument,
	{1, wire.MethodGet}:    (*ResourceAPI).getCategory,
	{1, wire.MethodHead}:   (*ResourceAPI).getCategory,
	{1, wire.MethodPost}:   (*ResourceAPI).postCategory,
	{1, wire.MethodPut}:    (*ResourceAPI).putCategory,
	{2, wire.MethodGet}:    (*ResourceAPI).getItem,
	{2, wire.MethodHead}:   (*ResourceAPI).getItem,
	{2, wire.MethodPut}:    (*ResourceAPI).putItem,
	{2, wire.MethodDelete}: (*ResourceAPI).deleteItem,
}

func (a *ResourceAPI) Serve(req *wire.Request, seg []string) *wire.Response {
	if len(seg) > 2 {
		return wire.Status(wire.StatusBadRequest)
	}
	h, ok := resourceRoutes[resourceRoute{len(seg), req.Method}]
	if !ok {
		return wire.Status(wire.StatusMethodNotAllowed)
	}
	return h(a, req, seg)
}

func (a *ResourceAPI) getDocument(req *wire.Request, seg []string) *wire.Response {
	return wire.JSON(wire.StatusOK, a.Store.Snapshot())
}

func (a *ResourceAPI) getCategory(req *wire.Request, seg []string) *wire.Response {
	return wire.JSON(wire.StatusOK, a.Store.Category(seg[0]))
}

func (a *ResourceAPI) postCategory(req *wire.Request, seg []string) *wire.Response {
	r, err := decodeObject(req.Body)
	if err != nil {
		return wire.Status(wire.StatusBadRequest)
	}
	created, err := a.Store.Create(seg[0], r)
	if err != nil {
		return a.storeError("create", err)
	}
	return wire.JSON(wire.StatusCreated, created)
}

// putCategory replaces the category when given an array and appends when
// given a single object.
func (a *ResourceAPI) putCategory(req *wire.Request, seg []string) *wire.Response {
	body := bytes.TrimSpace(req.Body)
	if len(body) == 0 || body[0] != '[' {
		return a.postCategory(req, seg)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return wire.Status(wire.StatusBadRequest)
	}
	items := make([]Resource, 0, len(raws))
	for _, raw := range raws {
		r, err := decodeObject(raw)
		if err != nil {
			return wire.Status(wire.StatusBadRequest)
		}
		items = append(items, r)
	}

	list, err := a.Store.ReplaceCategory(seg[0], items)
	if err != nil {
		return a.storeError("replace", err)
	}
	return wire.JSON(wire.StatusOK, list)
}

func (a *ResourceAPI) getItem(req *wire.Request, seg []string) *wire.Response {
	id, ok := parseID(seg[1])
	if !ok {
		return wire.Status(wire.StatusBadRequest)
	}
	r, err := a.Store.Item(seg[0], id)
	if err != nil {
		return a.storeError("get", err)
	}
	return wire.JSON(wire.StatusOK, r)
}

func (a *ResourceAPI) putItem(req *wire.Request, seg []string) *wire.Response {
	id, ok := parseID(seg[1])
	if !ok {
		return wire.Status(wire.StatusBadRequest)
	}
	fields, err := decodeObject(req.Body)
	if err != nil {
		return wire.Status(wire.StatusBadRequest)
	}
	r, err := a.Store.Update(seg[0], id, fields)
	if err != nil {
		return a.storeError("update", err)
	}
	return wire.JSON(wire.StatusOK, r)
}

func (a *ResourceAPI) deleteItem(req *wire.Request, seg []string) *wire.Response {
	id, ok := parseID(seg[1])
	if !ok {
		return wire.Status(wire.StatusBadRequest)
	}
	r, err := a.Store.Delete(seg[0], id)
	if err != nil {
		return a.storeError("delete", err)
	}
	return wire.JSON(wire.StatusOK, r)
}

func (a *ResourceAPI) storeError(op string, err error) *wire.Response {
	switch {
	case errors.Is(err, ErrNotFound):
		return wire.Status(wire.StatusNotFound)
	case errors.Is(err, ErrInvalidResource):
		return wire.Status(wire.StatusBadRequest)
	}
	a.Logger.Printf("resources: %s: %v", op, err)
	return wire.Status(wire.StatusInternalServerError)
}

// decodeObject accepts exactly one JSON object.
func decodeObject(b []byte) (Resource, error) {
	var r Resource
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrInvalidResource
	}
	return r, nil
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}
