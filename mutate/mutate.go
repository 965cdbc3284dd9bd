// Package mutate makes user-visible state changes appear instantaneous while
// the corresponding remote write is in flight, and converges local state to
// the authoritative result: Confirmed on success, Reverted on failure.
package mutate

import (
	"context"
	"sync"
	"time"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/utils"
	Logger "github.com/framez-app/framez-go/utils/log"
	"github.com/pkg/errors"
)

// ErrInFlight is returned when a toggle is requested for a target that
// already has a mutation in flight (or still inside its debounce hold). The
// request is ignored, never allowed to race the pending write.
var ErrInFlight = errors.New("mutation already in flight for target")

// ErrSelfFollow rejects a follow edge from an identity to itself.
var ErrSelfFollow = errors.New("cannot follow yourself")

// State is the lifecycle of a single mutation instance.
type State int

const (
	Idle State = iota
	AppliedLocally
	Confirmed
	Reverted
)

func (s State) String() string {
	switch s {
	case AppliedLocally:
		return "applied-locally"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	}
	return "idle"
}

// Result reports how a mutation settled. Err is set when the state is
// Reverted; it is a diagnostic, not a blocking failure.
type Result struct {
	Target    string
	State     State
	Liked     bool
	Following bool
	LikeCount int
	Err       error
}

const (
	// DefaultHold keeps a target busy briefly after settling so rapid
	// repeated toggles cannot flip faster than the eye registers.
	DefaultHold = 300 * time.Millisecond

	// DefaultWriteTimeout bounds how long a mutation may sit in
	// AppliedLocally before it is forcibly reverted. The hosted backends
	// have no such bound of their own.
	DefaultWriteTimeout = 15 * time.Second
)

// Engine serializes conflicting mutations per target key. Distinct targets
// have no ordering relationship between each other.
type Engine struct {
	store provider.DocStore

	Hold         time.Duration
	WriteTimeout time.Duration

	mu      sync.Mutex
	targets map[string]struct{}
}

func NewEngine(store provider.DocStore) *Engine {
	return &Engine{
		store:        store,
		Hold:         DefaultHold,
		WriteTimeout: DefaultWriteTimeout,
		targets:      make(map[string]struct{}),
	}
}

// acquire claims the single-flight slot for target. Returns false if a
// mutation for the same target is still pending or held.
func (e *Engine) acquire(target string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.targets[target]; busy {
		return false
	}
	e.targets[target] = struct{}{}
	return true
}

// release frees the target after the debounce hold elapses.
func (e *Engine) release(target string) {
	time.AfterFunc(e.Hold, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.targets, target)
	})
}

// ToggleLike flips the caller's membership in the post's liker set. The
// local post is updated immediately; on remote failure it is restored to its
// exact pre-toggle state. The like count shown anywhere is derived from the
// set's cardinality; this local adjustment is a transient approximation until
// the next live snapshot supersedes it.
func (e *Engine) ToggleLike(ctx context.Context, post *model.Post, userId string) (*Result, error) {
	if !e.acquire(post.Id) {
		return nil, ErrInFlight
	}
	defer e.release(post.Id)

	previous := append([]string{}, post.Likes...)
	wasLiked := post.LikedBy(userId)

	// Applied-Locally: set-add / set-remove, both idempotent.
	if wasLiked {
		post.Likes = utils.RemoveString(post.Likes, userId)
	} else if !utils.ContainsString(post.Likes, userId) {
		post.Likes = append(post.Likes, userId)
	}

	writeCtx, cancel := context.WithTimeout(ctx, e.WriteTimeout)
	defer cancel()

	err := e.store.Update(writeCtx, provider.CollectionPosts, post.Id, provider.Document{
		"likes": append([]string{}, post.Likes...),
	})
	if err != nil {
		// Reverted: restore the exact pre-toggle values.
		post.Likes = previous
		Logger.Log.Warnf("like toggle on post %s reverted: %v", post.Id, err)
		return &Result{
			Target:    post.Id,
			State:     Reverted,
			Liked:     wasLiked,
			LikeCount: post.LikeCount(),
			Err:       err,
		}, nil
	}

	return &Result{
		Target:    post.Id,
		State:     Confirmed,
		Liked:     !wasLiked,
		LikeCount: post.LikeCount(),
	}, nil
}

// ToggleFollow creates or deletes the follow edge keyed by
// (followerId, followeeId). The profile's follower count, when provided, is
// adjusted optimistically by +-1; it is re-derived from authoritative queries
// on the next full profile load.
func (e *Engine) ToggleFollow(ctx context.Context, followerId string, followeeId string, profile *model.UserProfile) (*Result, error) {
	if followerId == followeeId {
		return nil, ErrSelfFollow
	}
	if !e.acquire(followeeId) {
		return nil, ErrInFlight
	}
	defer e.release(followeeId)

	edgeId := model.FollowDocId(followerId, followeeId)

	_, err := e.store.Get(ctx, provider.CollectionFollows, edgeId)
	exists := err == nil
	if err != nil && err != provider.ErrNotFound {
		return nil, errors.Wrap(err, "failed to check follow edge")
	}

	// Applied-Locally: provisional counter adjustment.
	delta := 1
	if exists {
		delta = -1
	}
	if profile != nil {
		profile.FollowersCount += delta
	}

	writeCtx, cancel := context.WithTimeout(ctx, e.WriteTimeout)
	defer cancel()

	if exists {
		err = e.store.Delete(writeCtx, provider.CollectionFollows, edgeId)
	} else {
		err = e.store.Set(writeCtx, provider.CollectionFollows, edgeId, provider.Document{
			"followerId":  followerId,
			"followingId": followeeId,
			"timestamp":   provider.ServerTimestamp,
		})
	}
	if err != nil {
		if profile != nil {
			profile.FollowersCount -= delta
		}
		Logger.Log.Warnf("follow toggle on %s reverted: %v", edgeId, err)
		return &Result{
			Target:    followeeId,
			State:     Reverted,
			Following: exists,
			Err:       err,
		}, nil
	}

	return &Result{
		Target:    followeeId,
		State:     Confirmed,
		Following: !exists,
	}, nil
}
