package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/secret"
)

// CredentialStore persists the single active session for this device.
// Tokens are sealed with the device secret when one is configured. The
// opened session is kept in memory until the next Set or Clear.
type CredentialStore struct {
	db     *sql.DB
	sealer *secret.Sealer

	mu     sync.Mutex
	cached *model.Session
}

func NewCredentialStore(db *sql.DB, sealer *secret.Sealer) *CredentialStore {
	return &CredentialStore{db: db, sealer: sealer}
}

// Get returns the stored session, or an empty Session when none is stored.
func (s *CredentialStore) Get() (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	var authTok, refreshTok []byte
	var sealed bool
	err := s.db.QueryRow(
		`SELECT auth_token, refresh_token, sealed FROM credentials WHERE id = 1`,
	).Scan(&authTok, &refreshTok, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, nil
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("get credentials: %w", err)
	}

	if sealed {
		if authTok, err = s.sealer.Open(authTok); err != nil {
			return model.Session{}, fmt.Errorf("open auth token: %w", err)
		}
		if len(refreshTok) > 0 {
			if refreshTok, err = s.sealer.Open(refreshTok); err != nil {
				return model.Session{}, fmt.Errorf("open refresh token: %w", err)
			}
		}
	}

	sess := model.Session{AuthToken: string(authTok), RefreshToken: string(refreshTok)}
	s.cached = &sess
	return sess, nil
}

// Set replaces the stored session. An empty auth token clears it.
func (s *CredentialStore) Set(sess model.Session) error {
	if sess.AuthToken == "" {
		return s.Clear()
	}

	authTok := []byte(sess.AuthToken)
	refreshTok := []byte(sess.RefreshToken)
	sealed := s.sealer.Enabled()
	if sealed {
		var err error
		if authTok, err = s.sealer.Seal(authTok); err != nil {
			return fmt.Errorf("seal auth token: %w", err)
		}
		if len(refreshTok) > 0 {
			if refreshTok, err = s.sealer.Seal(refreshTok); err != nil {
				return fmt.Errorf("seal refresh token: %w", err)
			}
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO credentials (id, auth_token, refresh_token, sealed, updated_at) VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET auth_token = excluded.auth_token, refresh_token = excluded.refresh_token,
		 sealed = excluded.sealed, updated_at = excluded.updated_at`,
		authTok, refreshTok, sealed, time.Now().UTC(),
	)
	if err != nil {
		s.forget()
		return fmt.Errorf("set credentials: %w", err)
	}

	s.mu.Lock()
	s.cached = &sess
	s.mu.Unlock()
	return nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *CredentialStore) Clear() error {
	s.forget()
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) forget() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
