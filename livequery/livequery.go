// Package livequery maintains standing subscriptions to remote collections
// and converts change notifications into ordered local snapshots. Every
// delivery is a complete replacement of the previous one; the client never
// patches a snapshot incrementally, correctness rests on the store's
// delivered ordering.
package livequery

import (
	"context"
	"sync"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	Logger "github.com/framez-app/framez-go/utils/log"
)

// FeedQuery is all posts ordered by creation time descending.
func FeedQuery() provider.Query {
	return provider.Query{
		Collection: provider.CollectionPosts,
		OrderBy:    &provider.Order{Field: "timestamp", Descending: true},
	}
}

// AuthorPostsQuery is one author's posts ordered by creation time descending.
func AuthorPostsQuery(userId string) provider.Query {
	return provider.Query{
		Collection: provider.CollectionPosts,
		Filters:    []provider.Filter{{Field: "userId", Value: userId}},
		OrderBy:    &provider.Order{Field: "timestamp", Descending: true},
	}
}

// UserIndexQuery is the full identity index; search matching happens
// client-side via FilterUsers.
func UserIndexQuery() provider.Query {
	return provider.Query{Collection: provider.CollectionUsers}
}

// PostStream is a standing subscription delivering full post snapshots.
type PostStream struct {
	// C delivers complete ordered snapshots, empty slice when the filtered
	// result set is empty. Closed when the stream ends.
	C <-chan []*model.Post

	stop      func()
	closeOnce sync.Once
}

// Close stops delivery and releases remote resources. Idempotent.
func (s *PostStream) Close() {
	s.closeOnce.Do(s.stop)
}

// OpenPostStream opens a standing post subscription over the store's watch
// capability.
func OpenPostStream(ctx context.Context, store provider.DocStore, q provider.Query) (*PostStream, error) {
	snapshots, stop, err := store.Watch(ctx, q)
	if err != nil {
		Logger.Log.Warnf("post subscription failed to establish: %v", err)
		return nil, err
	}

	out := make(chan []*model.Post, 1)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case snapshot, ok := <-snapshots:
				if !ok {
					return
				}
				posts := make([]*model.Post, 0, len(snapshot))
				for _, doc := range snapshot {
					posts = append(posts, model.PostFromDocument(doc))
				}
				select {
				case out <- posts:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return &PostStream{
		C: out,
		stop: func() {
			stop()
			close(done)
		},
	}, nil
}

// UserStream is a standing subscription delivering full identity snapshots.
type UserStream struct {
	C <-chan []*model.User

	stop      func()
	closeOnce sync.Once
}

func (s *UserStream) Close() {
	s.closeOnce.Do(s.stop)
}

// OpenUserStream opens a standing identity-index subscription.
func OpenUserStream(ctx context.Context, store provider.DocStore, q provider.Query) (*UserStream, error) {
	snapshots, stop, err := store.Watch(ctx, q)
	if err != nil {
		Logger.Log.Warnf("user subscription failed to establish: %v", err)
		return nil, err
	}

	out := make(chan []*model.User, 1)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case snapshot, ok := <-snapshots:
				if !ok {
					return
				}
				users := make([]*model.User, 0, len(snapshot))
				for _, doc := range snapshot {
					users = append(users, model.UserFromDocument(doc))
				}
				select {
				case out <- users:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return &UserStream{
		C: out,
		stop: func() {
			stop()
			close(done)
		},
	}, nil
}
