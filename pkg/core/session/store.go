// Package session tracks the user's conversation sessions: the currently open
// transcript, the catalog of past sessions, and their persistence.
//
// Persistence is best effort. Read failures and corrupt values degrade to an
// empty state with a warning; write failures are logged and never surfaced to
// the caller, so a broken disk cannot take down a conversation in progress.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

const (
	keyCurrentSession = "current-session-id"
	keyCatalog        = "session-catalog"
	keySessionPrefix  = "session:"
)

// Store owns all session state. It is the single mutation point for
// transcripts: every message enters a session through AppendMessage or
// AppendToCurrent, which keeps the in-memory state and the KV in step.
//
// The store maintains an epoch counter that advances every time the current
// session changes. Callers that dispatch long-running work against the
// current session capture the epoch first and compare it on completion to
// detect that the user has moved on in the meantime.
type Store struct {
	mu     sync.Mutex
	kv     KV
	logger *slog.Logger

	current   *types.Session
	sessions  map[string]*types.Session
	order     []string // catalog ids, newest first
	inCatalog map[string]bool
	epoch     uint64
}

// NewStore loads persisted state from kv and returns a ready store. If
// nothing was persisted, or the persisted state cannot be read, the store
// starts with a single fresh session.
//
// The fresh session has an empty ID: the backend assigns one on the first
// exchange and the caller adopts it via AdoptID. Sessions created explicitly
// with CreateSession get a client-side ID immediately.
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		kv:        kv,
		logger:    logger,
		sessions:  make(map[string]*types.Session),
		inCatalog: make(map[string]bool),
	}
	s.load()
	if s.current == nil {
		s.current = &types.Session{CreatedAt: time.Now()}
	}
	return s
}

// Current returns a snapshot of the open session. Mutating the returned
// value does not affect the store.
func (s *Store) Current() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.current.Clone()
}

// CurrentRef returns the open session's ID together with the store epoch.
// The pair identifies "the session as of now" for in-flight work.
func (s *Store) CurrentRef() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.ID, s.epoch
}

// Epoch returns the current store epoch.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// CreateSession archives the open session if it holds any messages, then
// starts a fresh one and returns its ID. An open session with no messages is
// discarded silently so the catalog never accumulates empty entries.
func (s *Store) CreateSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveCurrentLocked()
	id := uuid.NewString()
	s.current = &types.Session{ID: id, CreatedAt: time.Now()}
	s.sessions[id] = s.current
	s.epoch++
	s.persistCurrentIDLocked()
	return id
}

// SwitchSession makes an existing session current. The session being left is
// not archived here; it stays addressable by ID and its place in the catalog
// is whatever it already was.
func (s *Store) SwitchSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("unknown session %q", id)
	}
	if sess == s.current {
		return nil
	}
	s.current = sess
	s.epoch++
	s.persistCurrentIDLocked()
	return nil
}

// DeleteSession removes a session and its transcript. Deleting the open
// session replaces it with a fresh one, so there is always a current session
// to type into.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok && s.current.ID != id {
		return fmt.Errorf("unknown session %q", id)
	}
	wasCurrent := s.current.ID == id
	delete(s.sessions, id)
	if s.inCatalog[id] {
		delete(s.inCatalog, id)
		for i, cid := range s.order {
			if cid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.persistCatalogLocked()
	}
	if err := s.kv.Delete(keySessionPrefix + id); err != nil {
		s.logger.Warn("session delete failed", "session_id", id, "error", err)
	}
	if wasCurrent {
		s.current = &types.Session{ID: uuid.NewString(), CreatedAt: time.Now()}
		s.sessions[s.current.ID] = s.current
		s.epoch++
		s.persistCurrentIDLocked()
	}
	return nil
}

// AppendToCurrent appends a message to the open session and persists it.
func (s *Store) AppendToCurrent(msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Messages = append(s.current.Messages, msg)
	s.persistSessionLocked(s.current)
	if s.inCatalog[s.current.ID] {
		s.persistCatalogLocked()
	}
}

// AppendMessage appends a message to the session with the given ID, which
// need not be the current one.
func (s *Store) AppendMessage(id string, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("unknown session %q", id)
	}
	sess.Messages = append(sess.Messages, msg)
	s.persistSessionLocked(sess)
	if s.inCatalog[id] {
		s.persistCatalogLocked()
	}
	return nil
}

// AdoptID assigns a backend-issued ID to the open session. It only applies
// when the session has no ID yet; a session keeps its first ID for life.
func (s *Store) AdoptID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.ID != "" || id == "" {
		return false
	}
	s.current.ID = id
	s.sessions[id] = s.current
	s.persistSessionLocked(s.current)
	s.persistCurrentIDLocked()
	return true
}

// Get returns a snapshot of the session with the given ID.
func (s *Store) Get(id string) (types.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return types.Session{}, false
	}
	return *sess.Clone(), true
}

// Catalog returns summaries of archived sessions, newest first. Only
// sessions with at least one message are ever archived, so every entry has a
// non-empty preview.
func (s *Store) Catalog() []types.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogLocked()
}

func (s *Store) catalogLocked() []types.SessionSummary {
	out := make([]types.SessionSummary, 0, len(s.order))
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok {
			out = append(out, sess.Summary())
		}
	}
	return out
}

// archiveCurrentLocked puts the open session into the catalog if it has any
// messages and is not already there. Empty sessions are dropped.
func (s *Store) archiveCurrentLocked() {
	cur := s.current
	if cur == nil || cur.MessageCount() == 0 {
		return
	}
	if cur.ID == "" {
		// Never adopted an ID; give it one so it stays addressable.
		cur.ID = uuid.NewString()
		s.sessions[cur.ID] = cur
	}
	if s.inCatalog[cur.ID] {
		return
	}
	s.inCatalog[cur.ID] = true
	s.order = append([]string{cur.ID}, s.order...)
	s.persistSessionLocked(cur)
	s.persistCatalogLocked()
}

func (s *Store) persistCurrentIDLocked() {
	if err := s.kv.Put(keyCurrentSession, []byte(s.current.ID)); err != nil {
		s.logger.Warn("current session id write failed", "error", err)
	}
}

func (s *Store) persistSessionLocked(sess *types.Session) {
	if sess.ID == "" {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Warn("session encode failed", "session_id", sess.ID, "error", err)
		return
	}
	if err := s.kv.Put(keySessionPrefix+sess.ID, data); err != nil {
		s.logger.Warn("session write failed", "session_id", sess.ID, "error", err)
	}
}

func (s *Store) persistCatalogLocked() {
	data, err := json.Marshal(s.catalogLocked())
	if err != nil {
		s.logger.Warn("catalog encode failed", "error", err)
		return
	}
	if err := s.kv.Put(keyCatalog, data); err != nil {
		s.logger.Warn("catalog write failed", "error", err)
	}
}

// load restores persisted state. Anything unreadable is skipped with a
// warning; a fully broken KV leaves the store empty, which is a valid state.
func (s *Store) load() {
	raw, ok, err := s.kv.Get(keyCatalog)
	if err != nil {
		s.logger.Warn("catalog read failed, starting empty", "error", err)
	} else if ok {
		var summaries []types.SessionSummary
		if err := json.Unmarshal(raw, &summaries); err != nil {
			s.logger.Warn("catalog corrupt, starting empty", "error", err)
		} else {
			for _, sum := range summaries {
				sess := s.loadSession(sum.ID)
				if sess == nil || sess.MessageCount() == 0 {
					continue
				}
				s.sessions[sess.ID] = sess
				s.inCatalog[sess.ID] = true
				s.order = append(s.order, sess.ID)
			}
		}
	}

	raw, ok, err = s.kv.Get(keyCurrentSession)
	if err != nil {
		s.logger.Warn("current session id read failed", "error", err)
		return
	}
	if !ok || len(raw) == 0 {
		return
	}
	id := string(raw)
	if sess, found := s.sessions[id]; found {
		s.current = sess
		return
	}
	if sess := s.loadSession(id); sess != nil {
		s.sessions[id] = sess
		s.current = sess
	}
}

func (s *Store) loadSession(id string) *types.Session {
	raw, ok, err := s.kv.Get(keySessionPrefix + id)
	if err != nil {
		s.logger.Warn("session read failed", "session_id", id, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var sess types.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn("session corrupt, skipping", "session_id", id, "error", err)
		return nil
	}
	if sess.ID != id {
		sess.ID = id
	}
	return &sess
}
