// Package drive mirrors uploads to Google Drive. The rest of the service only
// sees it as an upload(bytes, metadata) -> public URL capability.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Uploader struct {
	oauth    *oauth2.Config
	tokens   TokenStore
	folderID string
}

// NewUploader reads an OAuth2 client configuration (the credentials JSON
// downloaded from the Google console) and wires it to a token store.
func NewUploader(credentialsFile string, tokens TokenStore, folderID string) (*Uploader, error) {
	const op = "drive.NewUploader"

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	cfg, err := google.ConfigFromJSON(data, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &Uploader{oauth: cfg, tokens: tokens, folderID: folderID}, nil
}

// AuthURL returns the consent URL to visit before any upload can succeed.
func (u *Uploader) AuthURL() string {
	return u.oauth.AuthCodeURL("state", oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code for tokens and persists them.
func (u *Uploader) Exchange(ctx context.Context, code string) error {
	const op = "drive.Exchange"

	tok, err := u.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if err := u.tokens.Save(tok); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

// Upload pushes the payload to the configured folder, makes it readable by
// anyone and returns the file id with its public URL.
func (u *Uploader) Upload(ctx context.Context, name, mimeType string, payload []byte) (string, string, error) {
	const op = "drive.Upload"

	tok, err := u.tokens.Load()
	if err != nil {
		return "", "", fmt.Errorf("%s: not authenticated: %v", op, err)
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(u.oauth.Client(ctx, tok)))
	if err != nil {
		return "", "", fmt.Errorf("%s: %v", op, err)
	}

	meta := &drive.File{Name: name, MimeType: mimeType}
	if u.folderID != "" {
		meta.Parents = []string{u.folderID}
	}
	file, err := svc.Files.Create(meta).
		Media(bytes.NewReader(payload), googleapi.ContentType(mimeType)).
		Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("%s: %v", op, err)
	}

	_, err = svc.Permissions.Create(file.Id, &drive.Permission{Role: "reader", Type: "anyone"}).
		Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("%s: %v", op, err)
	}

	return file.Id, fmt.Sprintf("https://drive.google.com/uc?id=%s", file.Id), nil
}
