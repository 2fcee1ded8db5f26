// Package session keeps the in-memory conversational state of the bot: one
// intake session and at most one draft per reporter, and the editing and
// rejection contexts of the administrator.
//
// Each method is atomic on its own. Read-modify-write sequences that span
// several calls hold the per-actor lock returned by LockReporter or LockAdmin.
package session

import (
	"fmt"
	"sync"
	"time"

	"complaintbot/backend/internal/models"
)

// Stats is a point-in-time count of store contents.
type Stats struct {
	Sessions   int
	Drafts     int
	Editing    int
	Rejections int
}

// Store holds sessions, drafts and administrator contexts.
type Store struct {
	mu        sync.Mutex
	sessions  map[int64]*models.Session
	drafts    map[int64]*models.Complaint
	editing   map[int64]*models.EditingSession
	rejecting map[int64]*models.RejectionSession

	reporters *KeyLock[int64]
	admins    *KeyLock[int64]

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:  make(map[int64]*models.Session),
		drafts:    make(map[int64]*models.Complaint),
		editing:   make(map[int64]*models.EditingSession),
		rejecting: make(map[int64]*models.RejectionSession),
		reporters: NewKeyLock[int64](),
		admins:    NewKeyLock[int64](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockReporter serializes all work on one reporter's session and draft.
func (s *Store) LockReporter(reporterID int64) (unlock func()) {
	return s.reporters.Lock(reporterID)
}

// LockAdmin serializes all work on one administrator's contexts.
func (s *Store) LockAdmin(adminID int64) (unlock func()) {
	return s.admins.Lock(adminID)
}

// Start opens a fresh session with an empty record. An active session is
// overwritten. Sessions and drafts are mutually exclusive, so an existing
// draft is discarded; discarded reports whether that happened.
func (s *Store) Start(reporterID int64) (sess *models.Session, discarded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, discarded = s.drafts[reporterID]
	delete(s.drafts, reporterID)

	sess = &models.Session{
		ReporterID: reporterID,
		Record:     models.NewComplaint(reporterID, s.now()),
	}
	s.sessions[reporterID] = sess
	return sess, discarded
}

// Get returns the active session of a reporter.
func (s *Store) Get(reporterID int64) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[reporterID]
	return sess, ok
}

// End removes and returns the active session.
func (s *Store) End(reporterID int64) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[reporterID]
	delete(s.sessions, reporterID)
	return sess, ok
}

// SaveDraft moves the active session's record into the draft slot, replacing
// any previous draft, and ends the session.
func (s *Store) SaveDraft(reporterID int64) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[reporterID]
	if !ok {
		return nil, fmt.Errorf("save draft for %d: %w", reporterID, models.ErrSessionNotFound)
	}
	delete(s.sessions, reporterID)
	s.drafts[reporterID] = sess.Record
	return sess.Record, nil
}

// LoadDraft moves the draft into a new active session and deletes the draft.
// The caller derives the session state from the record.
func (s *Store) LoadDraft(reporterID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[reporterID]
	if !ok {
		return nil, fmt.Errorf("load draft for %d: %w", reporterID, models.ErrDraftNotFound)
	}
	delete(s.drafts, reporterID)

	sess := &models.Session{ReporterID: reporterID, Record: draft}
	s.sessions[reporterID] = sess
	return sess, nil
}

// Draft returns a copy of the reporter's draft.
func (s *Store) Draft(reporterID int64) (*models.Complaint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[reporterID]
	return d.Clone(), ok
}

// DeleteDraft drops the draft and reports whether there was one.
func (s *Store) DeleteDraft(reporterID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drafts[reporterID]
	delete(s.drafts, reporterID)
	return ok
}

// OpenEditing starts an editing context for the administrator. Any open
// editing or rejection context of that administrator is replaced.
func (s *Store) OpenEditing(adminID int64, recordID string) *models.EditingSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rejecting, adminID)
	es := &models.EditingSession{AdminID: adminID, RecordID: recordID}
	s.editing[adminID] = es
	return es
}

// Editing returns the administrator's editing context.
func (s *Store) Editing(adminID int64) (*models.EditingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	es, ok := s.editing[adminID]
	return es, ok
}

// CloseEditing ends the administrator's editing context.
func (s *Store) CloseEditing(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.editing, adminID)
}

// OpenRejection starts waiting for a rejection reason. Any open editing or
// rejection context of that administrator is replaced.
func (s *Store) OpenRejection(adminID int64, recordID string) *models.RejectionSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.editing, adminID)
	rs := &models.RejectionSession{AdminID: adminID, RecordID: recordID}
	s.rejecting[adminID] = rs
	return rs
}

// Rejection returns the administrator's rejection context.
func (s *Store) Rejection(adminID int64) (*models.RejectionSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.rejecting[adminID]
	return rs, ok
}

// CloseRejection ends the administrator's rejection context.
func (s *Store) CloseRejection(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rejecting, adminID)
}

// Stats counts the store contents.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Sessions:   len(s.sessions),
		Drafts:     len(s.drafts),
		Editing:    len(s.editing),
		Rejections: len(s.rejecting),
	}
}
