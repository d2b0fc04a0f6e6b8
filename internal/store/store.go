// Package store persists negotiation sessions as JSON rows in SQLite. The
// database is opened lazily and created on first use. If opening the DB or
// executing queries fails, the store falls back to in-memory storage.
package store

import (
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/session"
)

// Store keeps sessions in SQLite with an in-memory fallback. Every write goes
// to memory as well, so a database that dies mid-flight loses persistence but
// not the running sessions.
type Store struct {
	path string

	once    sync.Once
	db      *sql.DB
	initErr error

	mu  sync.Mutex
	mem map[string][]byte
}

// record is the persisted shape of a session. The seller's stated minimum is
// hidden from API responses but must survive a restart, so it rides along
// here.
type record struct {
	*session.Session
	SellerMinimum *money.Amount `json:"seller_minimum,omitempty"`
}

// New returns a store backed by the SQLite file at path. The file is not
// touched until the first operation.
func New(path string) *Store {
	return &Store{path: path, mem: make(map[string][]byte)}
}

func (s *Store) init() {
	var err error
	s.db, err = sql.Open("sqlite", "file:"+s.path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory store", "error", err)
		return
	}
	if _, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS negotiations (
        id TEXT PRIMARY KEY,
        data TEXT,
        updated_at DATETIME
    );`); err != nil {
		s.initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory store", "error", err)
		return
	}
	logger.L.Info("sqlite negotiation store initialized", "path", s.path)
}

// Put saves a session, replacing any previous version with the same id.
func (s *Store) Put(sess *session.Session) error {
	s.once.Do(s.init)

	data, err := json.Marshal(record{Session: sess, SellerMinimum: sess.SellerMinimum})
	if err != nil {
		return err
	}

	if s.initErr == nil && s.db != nil {
		_, err := s.db.Exec(`INSERT INTO negotiations (id, data, updated_at) VALUES (?,?,?)
            ON CONFLICT(id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at;`,
			sess.ID, string(data), time.Now().UTC())
		if err != nil {
			logger.L.Error("failed to store negotiation in sqlite; falling back to memory", "error", err)
		}
	}

	s.mu.Lock()
	s.mem[sess.ID] = data
	s.mu.Unlock()
	return nil
}

// Get returns the session with the given id, or false when unknown. The
// returned session is a private copy; mutating it does not affect the store.
func (s *Store) Get(id string) (*session.Session, bool) {
	s.once.Do(s.init)

	if s.initErr == nil && s.db != nil {
		var data string
		err := s.db.QueryRow(`SELECT data FROM negotiations WHERE id = ?;`, id).Scan(&data)
		if err == nil {
			if sess, ok := decode([]byte(data)); ok {
				return sess, true
			}
		} else if err != sql.ErrNoRows {
			logger.L.Error("sqlite read failed; falling back to memory", "error", err)
		}
	}

	s.mu.Lock()
	data, ok := s.mem[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return decode(data)
}

// List returns all stored sessions, most recently updated first.
func (s *Store) List() []*session.Session {
	s.once.Do(s.init)

	if s.initErr == nil && s.db != nil {
		rows, err := s.db.Query(`SELECT data FROM negotiations ORDER BY updated_at DESC;`)
		if err == nil {
			defer rows.Close()
			var out []*session.Session
			for rows.Next() {
				var data string
				if err := rows.Scan(&data); err != nil {
					continue
				}
				if sess, ok := decode([]byte(data)); ok {
					out = append(out, sess)
				}
			}
			return out
		}
		logger.L.Error("sqlite list failed; falling back to memory", "error", err)
	}

	s.mu.Lock()
	out := make([]*session.Session, 0, len(s.mem))
	for _, data := range s.mem {
		if sess, ok := decode(data); ok {
			out = append(out, sess)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated.After(out[j].LastUpdated) })
	return out
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.once.Do(s.init)

	existed := false
	if s.initErr == nil && s.db != nil {
		res, err := s.db.Exec(`DELETE FROM negotiations WHERE id = ?;`, id)
		if err != nil {
			logger.L.Error("sqlite delete failed", "error", err)
		} else if n, err := res.RowsAffected(); err == nil && n > 0 {
			existed = true
		}
	}

	s.mu.Lock()
	if _, ok := s.mem[id]; ok {
		existed = true
		delete(s.mem, id)
	}
	s.mu.Unlock()
	return existed
}

// Close releases the underlying database, if it was ever opened.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func decode(data []byte) (*session.Session, bool) {
	var rec record
	rec.Session = &session.Session{}
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.L.Error("failed to decode stored negotiation", "error", err)
		return nil, false
	}
	rec.Session.SellerMinimum = rec.SellerMinimum
	return rec.Session, true
}
