package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
)

// FilePersister keeps the document as one JSON file, normally inside the
// reserved subtree.
type FilePersister struct {
	Path string
}

func (p *FilePersister) Load() (Document, error) {
	b, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *FilePersister) Save(doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(p.Path, append(b, '\n'), 0644)
}
