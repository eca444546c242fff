// Package store is the on-disk account registry: a sessions directory with
// one Telegram session file and one settings .env per account, plus
// accounts.json describing api credentials, user agent and proxy.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sleepchann/config"
	"sleepchann/constant"
)

const (
	accountsFile  = "accounts.json"
	recurringFile = "recurring_sessions.txt"
)

// DeviceInfo is the api block of one account entry. Empty fields fall back
// to the Telegram client defaults.
type DeviceInfo struct {
	APIID          int    `json:"api_id"`
	APIHash        string `json:"api_hash"`
	DeviceModel    string `json:"device_model,omitempty"`
	SystemVersion  string `json:"system_version,omitempty"`
	AppVersion     string `json:"app_version,omitempty"`
	SystemLangCode string `json:"system_lang_code,omitempty"`
	LangPack       string `json:"lang_pack,omitempty"`
	LangCode       string `json:"lang_code,omitempty"`
}

// Account is one registry entry, keyed by session name in accounts.json.
type Account struct {
	API       DeviceInfo `json:"api"`
	UserAgent string     `json:"user_agent,omitempty"`
	Proxy     string     `json:"proxy,omitempty"`
}

// Store reads and writes the registry under one directory. Writes are
// serialized and go through a temp file rename.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// SessionPath is where the Telegram session for the account lives.
func (s *Store) SessionPath(name string) string {
	return filepath.Join(s.dir, name+constant.SessionFileSuffix)
}

// SettingsPath is the per-account farming settings file.
func (s *Store) SettingsPath(name string) string {
	return filepath.Join(s.dir, name+constant.SessionEnvSuffix)
}

func (s *Store) accountsPath() string {
	return filepath.Join(s.dir, accountsFile)
}

// LoadSettings reads the account's farming settings, giving defaults when no
// settings file exists yet.
func (s *Store) LoadSettings(name string) (config.SessionSettings, error) {
	return config.LoadSession(s.SettingsPath(name))
}

// SaveSettings writes the account's farming settings file.
func (s *Store) SaveSettings(name string, cfg config.SessionSettings) error {
	return cfg.Save(s.SettingsPath(name))
}

// Sessions lists account names that have a Telegram session file, sorted.
func (s *Store) Sessions() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(entry.Name(), constant.SessionFileSuffix); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Accounts loads the whole registry. A missing or empty file is an empty
// registry, matching how a fresh checkout starts.
func (s *Store) Accounts() (map[string]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Account looks up one entry by session name.
func (s *Store) Account(name string) (Account, bool, error) {
	accounts, err := s.Accounts()
	if err != nil {
		return Account{}, false, err
	}
	acc, ok := accounts[name]
	return acc, ok, nil
}

// SaveAccount upserts one entry.
func (s *Store) SaveAccount(name string, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.readLocked()
	if err != nil {
		return err
	}
	accounts[name] = acc
	return s.writeLocked(accounts)
}

// Delete removes the account entry together with its session and settings
// files.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.readLocked()
	if err != nil {
		return err
	}
	delete(accounts, name)
	if err := s.writeLocked(accounts); err != nil {
		return err
	}

	for _, path := range []string{s.SessionPath(name), s.SettingsPath(name)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	s.logger.Info("Removed session", zap.String("account", name))
	return nil
}

// IsFirstRun reports whether the session has never completed a farming run.
func (s *Store) IsFirstRun(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, recurringFile))
	if err != nil {
		return true
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == name {
			return false
		}
	}
	return true
}

// MarkRecurring records that the session has run at least once.
func (s *Store) MarkRecurring(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, recurringFile)
	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == name {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, name)
	return err
}

func (s *Store) readLocked() (map[string]Account, error) {
	raw, err := os.ReadFile(s.accountsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Account{}, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return map[string]Account{}, nil
	}

	var accounts map[string]Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", accountsFile, err)
	}
	if accounts == nil {
		accounts = map[string]Account{}
	}
	return accounts, nil
}

func (s *Store) writeLocked(accounts map[string]Account) error {
	raw, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.accountsPath() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.accountsPath())
}
