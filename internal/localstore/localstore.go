// Package localstore keeps the few values that outlive a session: the company
// party, the last exported invoice number and the theme preference.
//
// Values live in a single JSON object of string keys to string values, written
// to disk on every Set.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"invoicer/internal/draft"
	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

// Keys of the stored values.
const (
	KeyCompany           = "invoiceGenerator_company"
	KeyLastInvoiceNumber = "lastInvoiceNumber"
	KeyTheme             = "invoiceGenerator_theme"
)

// Theme is the light/dark preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ErrInvalidTheme is returned by SetTheme for anything but light or dark.
var ErrInvalidTheme = errors.New("theme must be light or dark")

// FileName is the name of the store file inside its directory.
const FileName = "localstore.json"

// Store is a file-backed string key/value store.
type Store struct {
	path   string
	values map[string]string
	log    zerolog.Logger
}

// Open loads the store kept in dir, creating an empty one if none exists.
func Open(dir string) (*Store, error) {
	const op = "Open"

	s := &Store{
		path:   filepath.Join(dir, FileName),
		values: map[string]string{},
		log:    logger.WithComponent("localstore"),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, s.path, err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		// A corrupt file is treated like an empty one.
		s.log.Warn().Err(err).Str("path", s.path).Msg("Ignoring unreadable local store")
		s.values = map[string]string{}
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and flushes the store to disk.
func (s *Store) Set(key, value string) error {
	const op = "Set"

	s.values[key] = value

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%s: failed to create store directory: %w", op, err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to encode store: %w", op, err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%s: failed to write %s: %w", op, s.path, err)
	}
	return nil
}

// SaveCompany stores the company party. It satisfies draft.CompanySaver.
func (s *Store) SaveCompany(company models.Party) error {
	data, err := json.Marshal(company)
	if err != nil {
		return fmt.Errorf("SaveCompany: failed to encode company: %w", err)
	}
	return s.Set(KeyCompany, string(data))
}

// RestoreCompany merges the stored company fields over base. Stored fields
// that are missing keep the value from base.
func (s *Store) RestoreCompany(base models.Party) models.Party {
	raw, ok := s.Get(KeyCompany)
	if !ok {
		return base
	}
	merged := base
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		s.log.Warn().Err(err).Msg("Error loading company data from local store")
		return base
	}
	return merged
}

// NextInvoiceNumber returns the last exported number plus one, zero-padded to
// four digits. Without a usable last number it returns "0001".
func (s *Store) NextInvoiceNumber() string {
	next := 1
	if raw, ok := s.Get(KeyLastInvoiceNumber); ok {
		if last, ok := draft.ParseInt(raw); ok {
			next = last + 1
		}
	}
	return fmt.Sprintf("%04d", next)
}

// RecordInvoiceNumber remembers number as the last exported one. Numbers
// without a leading integer are recorded as 1.
func (s *Store) RecordInvoiceNumber(number string) error {
	n, ok := draft.ParseInt(number)
	if !ok || n == 0 {
		n = 1
	}
	return s.Set(KeyLastInvoiceNumber, strconv.Itoa(n))
}

// Theme returns the stored theme, light when unset.
func (s *Store) Theme() Theme {
	if v, _ := s.Get(KeyTheme); Theme(v) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("SetTheme: %q: %w", theme, ErrInvalidTheme)
	}
	return s.Set(KeyTheme, string(theme))
}

// ToggleTheme flips the stored theme and returns the new one.
func (s *Store) ToggleTheme() (Theme, error) {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	return next, s.SetTheme(next)
}
