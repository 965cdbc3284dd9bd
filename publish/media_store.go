package publish

import (
	"context"
	"fmt"
	"sync"
)

// LocalImage is an image selected on the device, not yet uploaded.
type LocalImage struct {
	Data        []byte
	Name        string
	ContentType string
}

// MediaStore uploads image bytes to a remote object store and returns a
// publicly resolvable URL.
type MediaStore interface {
	Upload(ctx context.Context, image *LocalImage) (url string, err error)
}

// MediaDeleter is optionally implemented by stores that can remove an
// uploaded object, enabling orphan compensation when a post write fails
// after its upload succeeded.
type MediaDeleter interface {
	Delete(ctx context.Context, url string) error
}

// FakeMediaStore is an in-memory MediaStore for tests.
type FakeMediaStore struct {
	mu       sync.Mutex
	uploads  int
	deletes  int
	lastData []byte

	FailUpload bool
}

func (f *FakeMediaStore) Upload(ctx context.Context, image *LocalImage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailUpload {
		return "", &UploadError{Err: fmt.Errorf("injected upload failure")}
	}
	f.uploads++
	f.lastData = append([]byte(nil), image.Data...)
	return fmt.Sprintf("https://fake.framez.app/%s", image.Name), nil
}

func (f *FakeMediaStore) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *FakeMediaStore) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// LastUploadData returns a copy of the bytes from the most recent upload.
func (f *FakeMediaStore) LastUploadData() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.lastData...)
}

func (f *FakeMediaStore) Deletes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}
