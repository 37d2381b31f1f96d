package drive

import (
	"encoding/json"
	"os"

	"golang.org/x/oauth2"
)

// TokenStore persists OAuth tokens between process restarts. Injected so that
// nothing in the service holds process-global credential state.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(*oauth2.Token) error
}

// FileTokenStore keeps the token as a JSON file, matching the tokens.json the
// deployed service was authenticated with.
type FileTokenStore struct {
	Path string
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}
