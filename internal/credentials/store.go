package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var ErrNoCredential = errors.New("no stored credential")

// Store persists the bearer credential, the only piece of client state that
// survives between runs, as a single-key JSON file.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

type fileContents struct {
	Token string `json:"token"`
}

func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger.Named("credentials"),
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return "", fmt.Errorf("decode credential file: %w", err)
	}
	token := strings.TrimSpace(contents.Token)
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// Token implements zlagoda.TokenSource; unreadable files count as no token.
func (s *Store) Token() string {
	token, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			s.logger.Warn("credential unreadable", zap.Error(err))
		}
		return ""
	}
	return token
}

func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	data, err := json.Marshal(fileContents{Token: token})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

// Clear removes the credential. Clearing an absent credential is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
