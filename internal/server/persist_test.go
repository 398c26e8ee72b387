package server

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilePersisterMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	p := &FilePersister{Path: filepath.Join(dir, "private", "resources.json")}

	doc, err := p.Load()
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("missing file loaded %d categories", len(doc))
	}

	writeFile(t, p.Path, "  \n")
	doc, err = p.Load()
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("empty file loaded %d categories", len(doc))
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := &FilePersister{Path: filepath.Join(dir, "private", "resources.json")}

	s, err := OpenResourceStore(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("gatos", mustResource(t, `{"nombre":"Michi","datos":{"edad":3}}`)); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Dir(p.Path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}

	reopened, err := OpenResourceStore(&FilePersister{Path: p.Path})
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, `[{"datos":{"edad":3},"id":1,"nombre":"Michi"}]`, mustJSON(t, reopened.Category("gatos")))
}

func TestFilePersisterCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.json")
	writeFile(t, path, "{not json")
	if _, err := OpenResourceStore(&FilePersister{Path: path}); err == nil {
		t.Fatal("OpenResourceStore accepted a corrupt document")
	}
}

func TestSQLitePersister(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "resources.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	p := NewSQLitePersister(db)
	p.Keep = 3

	snap, err := p.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Fatalf("Latest on empty db = %+v, want nil", snap)
	}

	s, err := OpenResourceStore(p)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.Create("perros", mustResource(t, `{"nombre":"Rex"}`)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := p.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	snap, err = p.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil || snap.ID == "" {
		t.Fatalf("Latest = %+v", snap)
	}
	if got := len(snap.Doc["perros"]); got != 5 {
		t.Errorf("latest snapshot has %d perros, want 5", got)
	}

	reopened, err := OpenResourceStore(p)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, mustJSON(t, s.Snapshot()), mustJSON(t, reopened.Snapshot()))
}

func TestRunMigrationsTwice(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "resources.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var buf bytes.Buffer
	if err := RunMigrations(db, log.New(&buf, "", 0)); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
	ExpectEqual(t, "db: applied 001_document_snapshots.sql\ndb: applied 002_snapshot_created_idx.sql\n", buf.String())
}
