package freee

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const (
	defaultSecretService = "uriage"
	defaultSecretAccount = "freee_oauth"
)

var (
	keyringGet = keyring.Get
	keyringSet = keyring.Set
)

// ErrNoToken means no stored token was found; run the handshake command.
var ErrNoToken = errors.New("no stored freee token, run freee-init first")

// TokenStore persists the freee OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// KeyringTokenStore keeps the token JSON in the system credential store.
type KeyringTokenStore struct {
	service string
	account string
}

func NewKeyringTokenStore() *KeyringTokenStore {
	return &KeyringTokenStore{service: defaultSecretService, account: defaultSecretAccount}
}

func (s *KeyringTokenStore) Load() (*oauth2.Token, error) {
	raw, err := keyringGet(s.service, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read keyring item service=%q account=%q: %w", s.service, s.account, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decode stored token: %w", err)
	}
	return &tok, nil
}

func (s *KeyringTokenStore) Save(token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := keyringSet(s.service, s.account, string(raw)); err != nil {
		return fmt.Errorf("store keyring item service=%q account=%q: %w", s.service, s.account, err)
	}
	return nil
}

// FileTokenStore keeps the token in a mode-0600 JSON file. It is the
// fallback for hosts without a credential store.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return &tok, nil
}

func (s *FileTokenStore) Save(token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// OpenTokenStore prefers the system keyring and falls back to a file under
// the given path when the keyring is unavailable.
func OpenTokenStore(fallbackPath string) TokenStore {
	probe := NewKeyringTokenStore()
	if err := keyringSet(probe.service, probe.account+"_probe", "ok"); err == nil {
		_ = keyring.Delete(probe.service, probe.account+"_probe")
		return probe
	}
	return NewFileTokenStore(fallbackPath)
}
