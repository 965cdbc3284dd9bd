package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsignedUploadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Nil(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "unsigned_posts", r.FormValue("upload_preset"))
		assert.Equal(t, "posts", r.FormValue("folder"))
		_, header, err := r.FormFile("file")
		require.Nil(t, err)
		assert.Contains(t, header.Filename, "post_")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url": "https://res.example.com/posts/abc.jpg"}`))
	}))
	defer server.Close()

	s := NewUnsignedMediaStore("demo", "unsigned_posts", "posts")
	s.SetEndpoint(server.URL)

	url, err := s.Upload(context.Background(), testImage())
	require.Nil(t, err)
	assert.Equal(t, "https://res.example.com/posts/abc.jpg", url)
}

func TestUnsignedUploadMissingUrlIsUploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// 200 but no secure_url field: the contract's failure signal.
		w.Write([]byte(`{"status": "queued"}`))
	}))
	defer server.Close()

	s := NewUnsignedMediaStore("demo", "unsigned_posts", "posts")
	s.SetEndpoint(server.URL)

	_, err := s.Upload(context.Background(), testImage())
	require.NotNil(t, err)
	var uploadErr *UploadError
	assert.True(t, errors.As(err, &uploadErr))
}

func TestUnsignedUploadHttpErrorIsUploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	s := NewUnsignedMediaStore("demo", "unsigned_posts", "posts")
	s.SetEndpoint(server.URL)

	_, err := s.Upload(context.Background(), testImage())
	var uploadErr *UploadError
	assert.True(t, errors.As(err, &uploadErr))
}
