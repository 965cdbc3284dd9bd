package livequery

import (
	"context"
	"testing"
	"time"

	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/provider/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postDoc(userId string, text string, at time.Time) provider.Document {
	return provider.Document{
		"userId":    userId,
		"userName":  userId,
		"text":      text,
		"timestamp": at,
		"likes":     []string{},
	}
}

func TestFeedStreamDeliversOrderedSnapshots(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	stream, err := OpenPostStream(ctx, store, FeedQuery())
	require.Nil(t, err)
	defer stream.Close()

	// Initial snapshot: empty sequence, not an error.
	first := <-stream.C
	assert.Len(t, first, 0)

	base := time.Now()
	_, err = store.Create(ctx, provider.CollectionPosts, postDoc("u1", "older", base))
	require.Nil(t, err)
	second := <-stream.C
	require.Len(t, second, 1)
	assert.Equal(t, "older", second[0].Text)

	_, err = store.Create(ctx, provider.CollectionPosts, postDoc("u2", "newer", base.Add(time.Minute)))
	require.Nil(t, err)
	third := <-stream.C
	// Full replacement, newest first.
	require.Len(t, third, 2)
	assert.Equal(t, "newer", third[0].Text)
	assert.Equal(t, "older", third[1].Text)
}

func TestSnapshotTotality(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	base := time.Now()
	for i, text := range []string{"a", "b", "c"} {
		_, err := store.Create(ctx, provider.CollectionPosts, postDoc("u1", text, base.Add(time.Duration(i)*time.Second)))
		require.Nil(t, err)
	}

	stream, err := OpenPostStream(ctx, store, FeedQuery())
	require.Nil(t, err)
	defer stream.Close()

	// Whatever sequence of change notifications preceded it, every delivered
	// snapshot is the full current result set, never a merge.
	snapshot := <-stream.C
	require.Len(t, snapshot, 3)
	assert.Equal(t, "c", snapshot[0].Text)
	assert.Equal(t, "a", snapshot[2].Text)
}

func TestAuthorPostsStreamFilters(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	base := time.Now()
	_, err := store.Create(ctx, provider.CollectionPosts, postDoc("u1", "mine", base))
	require.Nil(t, err)
	_, err = store.Create(ctx, provider.CollectionPosts, postDoc("u2", "theirs", base))
	require.Nil(t, err)

	stream, err := OpenPostStream(ctx, store, AuthorPostsQuery("u1"))
	require.Nil(t, err)
	defer stream.Close()

	snapshot := <-stream.C
	require.Len(t, snapshot, 1)
	assert.Equal(t, "mine", snapshot[0].Text)
}

func TestStreamCloseIsIdempotentAndStopsDelivery(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	stream, err := OpenPostStream(ctx, store, FeedQuery())
	require.Nil(t, err)

	<-stream.C
	stream.Close()
	stream.Close()

	_, err = store.Create(ctx, provider.CollectionPosts, postDoc("u1", "late", time.Now()))
	require.Nil(t, err)

	// The channel drains and closes; no new snapshot arrives for a
	// torn-down subscription.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-stream.C:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close")
		}
	}
}

func TestUserStream(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.Nil(t, store.Set(ctx, provider.CollectionUsers, "u1", provider.Document{
		"displayName": "Ana", "email": "ana@framez.app",
	}))

	stream, err := OpenUserStream(ctx, store, UserIndexQuery())
	require.Nil(t, err)
	defer stream.Close()

	snapshot := <-stream.C
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Ana", snapshot[0].DisplayName)
}
