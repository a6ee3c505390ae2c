package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/walkin/internal/model"
)

const themeKey = "theme"

// PreferenceStore holds device-local UI preferences.
type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// Get returns the value for key and whether it was present.
func (s *PreferenceStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, true, nil
}

func (s *PreferenceStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

// Theme returns the stored theme, falling back to system for missing or
// unrecognised values.
func (s *PreferenceStore) Theme() (model.Theme, error) {
	raw, ok, err := s.Get(themeKey)
	if err != nil {
		return model.ThemeSystem, err
	}
	if !ok {
		return model.ThemeSystem, nil
	}
	theme, valid := model.ParseTheme(raw)
	if !valid {
		return model.ThemeSystem, nil
	}
	return theme, nil
}

func (s *PreferenceStore) SetTheme(theme model.Theme) error {
	if _, ok := model.ParseTheme(string(theme)); !ok {
		return fmt.Errorf("invalid theme %q", theme)
	}
	return s.Set(themeKey, string(theme))
}
