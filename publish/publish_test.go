package publish

import (
	"context"
	"strings"
	"testing"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/provider/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var author = &model.User{Id: "u1", DisplayName: "Ana", PhotoUrl: "https://cdn.framez.app/ana.jpg"}

func testImage() *LocalImage {
	return &LocalImage{Data: []byte("not really a jpeg"), Name: "selfie.jpg", ContentType: "image/jpeg"}
}

func TestPublishTextOnly(t *testing.T) {
	store := memory.NewStore()
	media := &FakeMediaStore{}
	p := NewPipeline(store, media)

	post, err := p.Publish(context.Background(), author, "  hello world  ", nil)
	require.Nil(t, err)
	assert.Equal(t, "hello world", post.Text)
	assert.Equal(t, "Ana", post.UserName)
	assert.Empty(t, post.ImageUrl)
	assert.False(t, post.Timestamp.IsZero())
	assert.Equal(t, 0, post.LikeCount())
	assert.Equal(t, 0, media.Uploads())
}

func TestPublishWithImage(t *testing.T) {
	store := memory.NewStore()
	media := &FakeMediaStore{}
	p := NewPipeline(store, media)

	post, err := p.Publish(context.Background(), author, "", testImage())
	require.Nil(t, err)
	assert.Equal(t, "https://fake.framez.app/selfie.jpg", post.ImageUrl)
	assert.Equal(t, 1, media.Uploads())
}

func TestPublishValidationTouchesNothingRemote(t *testing.T) {
	store := memory.NewStore()
	media := &FakeMediaStore{}
	p := NewPipeline(store, media)

	_, err := p.Publish(context.Background(), author, "   ", nil)
	require.NotNil(t, err)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	// Zero remote calls were issued.
	assert.Equal(t, int64(0), store.Calls())
	assert.Equal(t, 0, media.Uploads())
}

func TestPublishRejectsOverlongCaption(t *testing.T) {
	p := NewPipeline(memory.NewStore(), &FakeMediaStore{})

	_, err := p.Publish(context.Background(), author, strings.Repeat("x", model.MaxPostTextLen+1), nil)
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestUploadFailureAbortsBeforeRecordWrite(t *testing.T) {
	store := memory.NewStore()
	media := &FakeMediaStore{FailUpload: true}
	p := NewPipeline(store, media)

	_, err := p.Publish(context.Background(), author, "caption", testImage())
	require.NotNil(t, err)

	var uploadErr *UploadError
	assert.True(t, errors.As(err, &uploadErr))
	// No partial record left behind.
	assert.Equal(t, int64(0), store.WriteCalls())
}

func TestRecordWriteFailureOrphansUploadByDefault(t *testing.T) {
	store := memory.NewStore()
	media := &FakeMediaStore{}
	p := NewPipeline(store, media)

	store.FailNextWrite(errors.New("network down"))
	_, err := p.Publish(context.Background(), author, "caption", testImage())
	require.NotNil(t, err)

	// Upload happened, no compensating delete.
	assert.Equal(t, 1, media.Uploads())
	assert.Equal(t, 0, media.Deletes())
}

func TestRecordWriteFailureCompensatesWhenEnabled(t *testing.T) {
	store := memory.NewStore()
	media := &FakeMediaStore{}
	p := NewPipeline(store, media)
	p.CompensateOrphans = true

	store.FailNextWrite(errors.New("network down"))
	_, err := p.Publish(context.Background(), author, "caption", testImage())
	require.NotNil(t, err)
	assert.Equal(t, 1, media.Deletes())
}

func TestPublishedPostAppearsInStore(t *testing.T) {
	store := memory.NewStore()
	p := NewPipeline(store, &FakeMediaStore{})

	post, err := p.Publish(context.Background(), author, "caption", nil)
	require.Nil(t, err)

	doc, err := store.Get(context.Background(), provider.CollectionPosts, post.Id)
	require.Nil(t, err)
	assert.Equal(t, "caption", doc["text"])
	assert.Equal(t, []string{}, doc["likes"])
}
