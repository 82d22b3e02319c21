package freee

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	s := NewFileTokenStore(path)

	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("missing file: err = %v, want ErrNoToken", err)
	}

	in := &oauth2.Token{
		AccessToken:  "tok",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.AccessToken != in.AccessToken || out.RefreshToken != in.RefreshToken {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestKeyringTokenStore(t *testing.T) {
	items := map[string]string{}
	origGet, origSet := keyringGet, keyringSet
	t.Cleanup(func() { keyringGet, keyringSet = origGet, origSet })
	keyringGet = func(service, user string) (string, error) {
		v, ok := items[service+"/"+user]
		if !ok {
			return "", errors.New("secret not found in keyring")
		}
		return v, nil
	}
	keyringSet = func(service, user, secret string) error {
		items[service+"/"+user] = secret
		return nil
	}

	s := NewKeyringTokenStore()
	if err := s.Save(&oauth2.Token{AccessToken: "tok", RefreshToken: "refresh"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.AccessToken != "tok" || out.RefreshToken != "refresh" {
		t.Fatalf("loaded token = %+v", out)
	}
}

func TestKeyringTokenStoreRejectsGarbage(t *testing.T) {
	origGet := keyringGet
	t.Cleanup(func() { keyringGet = origGet })
	keyringGet = func(service, user string) (string, error) { return "not json", nil }

	if _, err := NewKeyringTokenStore().Load(); err == nil {
		t.Fatal("expected decode error")
	}
}
