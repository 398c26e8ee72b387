package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const defaultSnapshotKeep = 50

// SQLitePersister stores every saved document as a new snapshot row and
// loads the newest one. Old snapshots beyond Keep are pruned on save.
type SQLitePersister struct {
	DB   *sql.DB
	Keep int
}

func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{DB: db, Keep: defaultSnapshotKeep}
}

// Snapshot describes one saved document.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Doc       Document
}

func (p *SQLitePersister) Load() (Document, error) {
	snap, err := p.Latest()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return Document{}, nil
	}
	return snap.Doc, nil
}

// Latest returns the newest snapshot, or nil when none was ever saved.
func (p *SQLitePersister) Latest() (*Snapshot, error) {
	row := p.DB.QueryRow(
		`SELECT id, created_at, payload_json
		 FROM document_snapshots
		 ORDER BY seq DESC
		 LIMIT 1`,
	)

	var snap Snapshot
	var createdAt int64
	var payload string
	if err := row.Scan(&snap.ID, &createdAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &snap.Doc); err != nil {
		return nil, err
	}
	snap.CreatedAt = time.Unix(createdAt, 0)
	return &snap, nil
}

func (p *SQLitePersister) Save(doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tx, err := p.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO document_snapshots (id, created_at, payload_json)
		 VALUES (?, ?, ?)`,
		uuid.NewString(), time.Now().Unix(), string(payload),
	)
	if err != nil {
		return err
	}
	if p.Keep > 0 {
		seq, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM document_snapshots WHERE seq <= ?`, seq-int64(p.Keep)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count reports how many snapshots are retained.
func (p *SQLitePersister) Count() (int, error) {
	var n int
	err := p.DB.QueryRow(`SELECT COUNT(*) FROM document_snapshots`).Scan(&n)
	return n, err
}
