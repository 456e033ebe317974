// Package session persists the (token, user) pair representing the current
// login. There is exactly one session per device; it survives restarts and is
// destroyed on logout.
package session

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/adiprasetyo/kalkulo/internal/models"
)

// Session is the persisted pair. All four stored fields are written and
// cleared as a group; a partial session is never observable.
type Session struct {
	Token string
	User  models.User
}

// Snapshot is what subscribers receive on every change. Present is false
// when no session is stored.
type Snapshot struct {
	Session Session
	Present bool
}

// Store is the process-wide session store. Construct one instance and inject
// it into every controller; Load is the explicit init that reads the
// persisted value.
type Store struct {
	db  *sqlx.DB
	log *logrus.Entry

	mu      sync.RWMutex
	current *Session
	subs    map[int]chan Snapshot
	nextSub int
}

type sessionRow struct {
	Token     string `db:"token"`
	UserID    int    `db:"user_id"`
	Username  string `db:"username"`
	FullName  string `db:"full_name"`
	UpdatedAt string `db:"updated_at"`
}

// NewStore creates a session store on top of an opened session database.
func NewStore(db *sqlx.DB, log *logrus.Entry) *Store {
	return &Store{
		db:   db,
		log:  log,
		subs: make(map[int]chan Snapshot),
	}
}

// Load reads the persisted session into the in-memory snapshot. Storage
// errors surface as an absent session, never as a visible failure.
func (s *Store) Load(ctx context.Context) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, "SELECT token, user_id, username, full_name, updated_at FROM session WHERE id = 1")

	s.mu.Lock()
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.WithError(err).Warn("failed to read persisted session")
		}
		s.current = nil
	} else {
		s.current = &Session{
			Token: row.Token,
			User: models.User{
				ID:       row.UserID,
				Username: row.Username,
				FullName: row.FullName,
			},
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Save overwrites the stored session. The write is a single transaction so
// token and user fields move together.
func (s *Store) Save(ctx context.Context, token string, user models.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO session (id, token, user_id, username, full_name, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			full_name = excluded.full_name,
			updated_at = excluded.updated_at
	`, token, user.ID, user.Username, user.FullName, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = &Session{Token: token, User: user}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Clear destroys the stored session.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = 1"); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Token returns the stored bearer token, or false when absent.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Token, true
}

// Current returns the whole stored session, or false when absent.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// UserID returns the stored user id, or false when absent.
func (s *Store) UserID() (int, bool) {
	sess, ok := s.Current()
	return sess.User.ID, ok
}

// Username returns the stored login identity, or false when absent.
func (s *Store) Username() (string, bool) {
	sess, ok := s.Current()
	return sess.User.Username, ok
}

// FullName returns the stored display name, or false when absent.
func (s *Store) FullName() (string, bool) {
	sess, ok := s.Current()
	return sess.User.FullName, ok
}

// Subscribe registers a watcher that receives a Snapshot after every change.
// The channel holds only the latest value; slow consumers never block the
// store. The returned func cancels the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) snapshotLocked() Snapshot {
	if s.current == nil {
		return Snapshot{}
	}
	return Snapshot{Session: *s.current, Present: true}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale value so the subscriber sees the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
