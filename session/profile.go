package session

import (
	"context"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	"github.com/pkg/errors"
)

// LoadProfile builds the display projection for a user. All three counts are
// live-derived from authoritative queries; any provisional adjustment made by
// an in-flight follow toggle is superseded by the next call.
func (m *Manager) LoadProfile(ctx context.Context, userId string) (*model.UserProfile, error) {
	doc, err := m.store.Get(ctx, provider.CollectionUsers, userId)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load user %s", userId)
	}
	user := model.UserFromDocument(doc)

	followers, err := m.store.Query(ctx, provider.Query{
		Collection: provider.CollectionFollows,
		Filters:    []provider.Filter{{Field: "followingId", Value: userId}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count followers")
	}
	following, err := m.store.Query(ctx, provider.Query{
		Collection: provider.CollectionFollows,
		Filters:    []provider.Filter{{Field: "followerId", Value: userId}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count following")
	}
	posts, err := m.store.Query(ctx, provider.Query{
		Collection: provider.CollectionPosts,
		Filters:    []provider.Filter{{Field: "userId", Value: userId}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count posts")
	}

	return &model.UserProfile{
		Id:             userId,
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		PhotoUrl:       user.PhotoUrl,
		FollowersCount: len(followers),
		FollowingCount: len(following),
		PostsCount:     len(posts),
	}, nil
}

// IsFollowing reports whether the follow edge (followerId, followeeId)
// currently exists. The record fields are authoritative, a document whose
// fields disagree with its id does not count as an edge.
func (m *Manager) IsFollowing(ctx context.Context, followerId string, followeeId string) (bool, error) {
	doc, err := m.store.Get(ctx, provider.CollectionFollows, model.FollowDocId(followerId, followeeId))
	if err == provider.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check follow status")
	}
	follow := model.FollowFromDocument(doc)
	return follow.FollowerId == followerId && follow.FollowingId == followeeId, nil
}
