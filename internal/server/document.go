package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrNotFound        = errors.New("server: resource not found")
	ErrInvalidResource = errors.New("server: invalid resource")
)

// Resource is an open field map. Values stay raw so fields round-trip
// without reinterpreting numbers or nesting.
type Resource map[string]json.RawMessage

// Document maps a category name to its ordered resources.
type Document map[string][]Resource

// ID returns the integer id field, if the resource carries one.
func (r Resource) ID() (int64, bool) {
	raw, ok := r["id"]
	if !ok {
		return 0, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r Resource) setID(id int64) {
	r["id"] = json.RawMessage(strconv.FormatInt(id, 10))
}

func (r Resource) clone() Resource {
	out := make(Resource, len(r))
	for k, v := range r {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Clone returns a deep copy; every category maps to a non-nil list.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for cat, items := range d {
		list := make([]Resource, len(items))
		for i, r := range items {
			list[i] = r.clone()
		}
		out[cat] = list
	}
	return out
}

// Validate checks that every resource has an integer id unique within its
// category.
func (d Document) Validate() error {
	for cat, items := range d {
		seen := make(map[int64]bool, len(items))
		for i, r := range items {
			if r == nil {
				return fmt.Errorf("%w: %s[%d] is not an object", ErrInvalidResource, cat, i)
			}
			id, ok := r.ID()
			if !ok {
				return fmt.Errorf("%w: %s[%d] has no integer id", ErrInvalidResource, cat, i)
			}
			if seen[id] {
				return fmt.Errorf("%w: %s has duplicate id %d", ErrInvalidResource, cat, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// nextID is one past the largest id in cat, or 1 for an empty category.
// It fails once the largest id is math.MaxInt64.
func (d Document) nextID(cat string) (int64, error) {
	var max int64
	for _, r := range d[cat] {
		if id, ok := r.ID(); ok && id > max {
			max = id
		}
	}
	if max == math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s has no ids left", ErrInvalidResource, cat)
	}
	return max + 1, nil
}

func (d Document) index(cat string, id int64) int {
	for i, r := range d[cat] {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}

func (d Document) list(cat string) []Resource {
	items := d[cat]
	out := make([]Resource, len(items))
	for i, r := range items {
		out[i] = r.clone()
	}
	return out
}

func (d Document) get(cat string, id int64) (Resource, bool) {
	i := d.index(cat, id)
	if i < 0 {
		return nil, false
	}
	return d[cat][i].clone(), true
}

// add appends r with a fresh id, creating cat if needed. Any id r carried
// is overwritten.
func (d Document) add(cat string, r Resource) (Resource, error) {
	id, err := d.nextID(cat)
	if err != nil {
		return nil, err
	}
	r = r.clone()
	r.setID(id)
	d[cat] = append(d[cat], r)
	return r.clone(), nil
}

// replace swaps the whole category. Items without an id are numbered after
// the largest id in the new list.
func (d Document) replace(cat string, items []Resource) ([]Resource, error) {
	list := make([]Resource, 0, len(items))
	seen := make(map[int64]bool, len(items))
	var max int64
	var pending []Resource
	for i, r := range items {
		if r == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidResource, i)
		}
		r = r.clone()
		if _, has := r["id"]; !has {
			pending = append(pending, r)
			list = append(list, r)
			continue
		}
		id, ok := r.ID()
		if !ok {
			return nil, fmt.Errorf("%w: element %d has a non-integer id", ErrInvalidResource, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidResource, id)
		}
		seen[id] = true
		if id > max {
			max = id
		}
		list = append(list, r)
	}
	if len(pending) > 0 && max > math.MaxInt64-int64(len(pending)) {
		return nil, fmt.Errorf("%w: no ids left above %d", ErrInvalidResource, max)
	}
	for _, r := range pending {
		max++
		r.setID(max)
	}
	d[cat] = list
	return d.list(cat), nil
}

// update replaces every field of the matching resource, keeping its id.
func (d Document) update(cat string, id int64, fields Resource) (Resource, bool) {
	i := d.index(cat, id)
	if i < 0 {
		return nil, false
	}
	r := fields.clone()
	r.setID(id)
	d[cat][i] = r
	return r.clone(), true
}

func (d Document) remove(cat string, id int64) (Resource, bool) {
	i := d.index(cat, id)
	if i < 0 {
		return nil, false
	}
	items := d[cat]
	r := items[i]
	d[cat] = append(items[:i:i], items[i+1:]...)
	return r, true
}
