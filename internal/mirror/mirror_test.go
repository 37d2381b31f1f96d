package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firewatch/internal/models"
)

type stubStore struct {
	images map[int64]*models.Image
}

func (s *stubStore) FetchOne(_ context.Context, id int64) (*models.Image, error) {
	img, ok := s.images[id]
	if !ok {
		return nil, errors.New("image not found")
	}
	return img, nil
}

type stubUploader struct {
	names    []string
	payloads [][]byte
	fail     bool
}

func (u *stubUploader) Upload(_ context.Context, name, mimeType string, payload []byte) (string, string, error) {
	if u.fail {
		return "", "", errors.New("drive unavailable")
	}
	u.names = append(u.names, name)
	u.payloads = append(u.payloads, payload)
	return "file-1", "https://drive.google.com/uc?id=file-1", nil
}

func TestMirrorImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	store := &stubStore{images: map[int64]*models.Image{7: {ID: 7, Data: payload}}}
	up := &stubUploader{}
	w := NewWorker("", "", store, up)

	require.NoError(t, w.mirrorImage(context.Background(), "7"))

	require.Len(t, up.payloads, 1)
	assert.Equal(t, payload, up.payloads[0])
	assert.Contains(t, up.names[0], "image-")
}

func TestMirrorImageBadID(t *testing.T) {
	w := NewWorker("", "", &stubStore{}, &stubUploader{})

	assert.Error(t, w.mirrorImage(context.Background(), "not-a-number"))
}

func TestMirrorImageUnknownID(t *testing.T) {
	w := NewWorker("", "", &stubStore{images: map[int64]*models.Image{}}, &stubUploader{})

	assert.Error(t, w.mirrorImage(context.Background(), "3"))
}

func TestMirrorImageUploadFailure(t *testing.T) {
	store := &stubStore{images: map[int64]*models.Image{1: {ID: 1, Data: []byte("x")}}}
	w := NewWorker("", "", store, &stubUploader{fail: true})

	assert.Error(t, w.mirrorImage(context.Background(), "1"))
}
