package mutate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/provider/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*Engine, *memory.Store) {
	store := memory.NewStore()
	e := NewEngine(store)
	e.Hold = 10 * time.Millisecond
	return e, store
}

func seedPost(t *testing.T, store *memory.Store, id string, likes []string) *model.Post {
	err := store.Set(context.Background(), provider.CollectionPosts, id, provider.Document{
		"userId":    "author",
		"likes":     append([]string{}, likes...),
		"timestamp": time.Now(),
	})
	require.Nil(t, err)
	return &model.Post{Id: id, UserId: "author", Likes: append([]string{}, likes...)}
}

func TestToggleLikeAddsCaller(t *testing.T) {
	e, store := newEngine(t)
	post := seedPost(t, store, "p1", nil)

	res, err := e.ToggleLike(context.Background(), post, "u1")
	require.Nil(t, err)
	assert.Equal(t, Confirmed, res.State)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)

	doc, err := store.Get(context.Background(), provider.CollectionPosts, "p1")
	require.Nil(t, err)
	assert.Equal(t, []string{"u1"}, doc["likes"])
}

func TestToggleLikeRemovesCaller(t *testing.T) {
	e, store := newEngine(t)
	post := seedPost(t, store, "p1", []string{"u1", "u2"})

	res, err := e.ToggleLike(context.Background(), post, "u1")
	require.Nil(t, err)
	assert.Equal(t, Confirmed, res.State)
	assert.False(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)
	assert.Equal(t, []string{"u2"}, post.Likes)
}

func TestLikeIdempotence(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	// Liking a post the remote set already counts the caller in leaves the
	// set cardinality stable: add is a set operation, not an append.
	seedPost(t, store, "p1", []string{"u1"})
	stale := &model.Post{Id: "p1", Likes: []string{}}
	_, err := e.ToggleLike(ctx, stale, "u1")
	require.Nil(t, err)

	doc, err := store.Get(ctx, provider.CollectionPosts, "p1")
	require.Nil(t, err)
	assert.Equal(t, []string{"u1"}, doc["likes"])

	// Unliking a post whose remote set does not contain the caller is a
	// no-op on the set.
	seedPost(t, store, "p2", []string{})
	stale = &model.Post{Id: "p2", Likes: []string{"u1"}}
	_, err = e.ToggleLike(ctx, stale, "u1")
	require.Nil(t, err)

	doc, err = store.Get(ctx, provider.CollectionPosts, "p2")
	require.Nil(t, err)
	assert.Equal(t, []string{}, doc["likes"])
}

func TestOptimisticReversion(t *testing.T) {
	e, store := newEngine(t)
	post := seedPost(t, store, "p1", []string{"u2"})

	store.FailNextWrite(errors.New("network down"))
	res, err := e.ToggleLike(context.Background(), post, "u1")
	require.Nil(t, err)

	// Visible flag and count settle to exactly their pre-toggle values.
	assert.Equal(t, Reverted, res.State)
	assert.False(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)
	assert.Equal(t, []string{"u2"}, post.Likes)
	assert.NotNil(t, res.Err)
}

func TestConcurrentToggleSerialization(t *testing.T) {
	e, store := newEngine(t)
	post := seedPost(t, store, "p1", nil)

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.ToggleLike(context.Background(), post, "u1")
		}(i)
	}
	wg.Wait()

	// Exactly one reaches the remote layer, the other is ignored.
	inFlight := 0
	for i := range errs {
		if errs[i] == ErrInFlight {
			inFlight++
		}
	}
	assert.Equal(t, 1, inFlight)
	assert.Equal(t, int64(2), store.WriteCalls()) // seed + one toggle
}

func TestDebounceHoldBlocksRapidRetoggle(t *testing.T) {
	e, store := newEngine(t)
	e.Hold = 200 * time.Millisecond
	post := seedPost(t, store, "p1", nil)

	_, err := e.ToggleLike(context.Background(), post, "u1")
	require.Nil(t, err)

	// Immediately retoggling the same target is rejected during the hold.
	_, err = e.ToggleLike(context.Background(), post, "u1")
	assert.Equal(t, ErrInFlight, err)

	time.Sleep(300 * time.Millisecond)
	_, err = e.ToggleLike(context.Background(), post, "u1")
	assert.Nil(t, err)
}

func TestDistinctTargetsDoNotSerialize(t *testing.T) {
	e, store := newEngine(t)
	e.Hold = 500 * time.Millisecond
	p1 := seedPost(t, store, "p1", nil)
	p2 := seedPost(t, store, "p2", nil)

	_, err := e.ToggleLike(context.Background(), p1, "u1")
	require.Nil(t, err)
	// A different post id is an independent target.
	_, err = e.ToggleLike(context.Background(), p2, "u1")
	assert.Nil(t, err)
}

func TestToggleFollowCreatesAndDeletesEdge(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	profile := &model.UserProfile{Id: "u2", FollowersCount: 5}

	res, err := e.ToggleFollow(ctx, "u1", "u2", profile)
	require.Nil(t, err)
	assert.Equal(t, Confirmed, res.State)
	assert.True(t, res.Following)
	assert.Equal(t, 6, profile.FollowersCount)

	edges, err := store.Query(ctx, provider.Query{
		Collection: provider.CollectionFollows,
		Filters:    []provider.Filter{{Field: "followerId", Value: "u1"}},
	})
	require.Nil(t, err)
	// At most one edge per (follower, followee) pair.
	require.Len(t, edges, 1)
	assert.Equal(t, model.FollowDocId("u1", "u2"), edges[0].Id())

	time.Sleep(30 * time.Millisecond)

	// Toggling again returns to the original existence state.
	res, err = e.ToggleFollow(ctx, "u1", "u2", profile)
	require.Nil(t, err)
	assert.False(t, res.Following)
	assert.Equal(t, 5, profile.FollowersCount)

	edges, err = store.Query(ctx, provider.Query{
		Collection: provider.CollectionFollows,
		Filters:    []provider.Filter{{Field: "followerId", Value: "u1"}},
	})
	require.Nil(t, err)
	assert.Len(t, edges, 0)
}

func TestToggleFollowRevertsCountOnFailure(t *testing.T) {
	e, store := newEngine(t)
	profile := &model.UserProfile{Id: "u2", FollowersCount: 5}

	store.FailNextWrite(errors.New("network down"))
	res, err := e.ToggleFollow(context.Background(), "u1", "u2", profile)
	require.Nil(t, err)
	assert.Equal(t, Reverted, res.State)
	assert.False(t, res.Following)
	assert.Equal(t, 5, profile.FollowersCount)
}

func TestSelfFollowRejected(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.ToggleFollow(context.Background(), "u1", "u1", nil)
	assert.Equal(t, ErrSelfFollow, err)
}
