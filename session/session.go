// Package session owns the current authenticated identity. It subscribes to
// the provider's auth-state stream, resolves the matching user document and
// broadcasts the signed-in user (or nil) to every registered listener.
package session

import (
	"context"
	"sync"

	"github.com/framez-app/framez-go/model"
	"github.com/framez-app/framez-go/provider"
	Logger "github.com/framez-app/framez-go/utils/log"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Manager is the process-wide session state owner. Reads are lock-free
// snapshots of the latest published value; all writes go through the auth
// event loop or the sign-out path.
type Manager struct {
	auth  provider.Auth
	store provider.DocStore

	mu        sync.RWMutex
	current   *model.User
	resolving bool

	// subscribers maps channel id (uuid) to the listener's channel so that
	// deletion is O(1). Each sign-in/sign-up transition is delivered exactly
	// once per listener, which is what drives the dependent live query
	// re-subscription cycle.
	subscribers map[string]chan *model.User

	// eventMu serializes identity resolution so a sign-up's own publish and
	// the provider's broadcast of the same transition cannot interleave.
	eventMu sync.Mutex

	stopAuth func()
}

func NewManager(auth provider.Auth, store provider.DocStore) *Manager {
	return &Manager{
		auth:        auth,
		store:       store,
		resolving:   true,
		subscribers: make(map[string]chan *model.User),
	}
}

// Start begins consuming auth-state events. Resolving stays true until the
// first event arrives. Teardown is bound to ctx.
func (m *Manager) Start(ctx context.Context) {
	states, stop := m.auth.SubscribeAuthState(ctx)
	m.mu.Lock()
	m.stopAuth = stop
	m.mu.Unlock()

	go func() {
		for {
			select {
			case state, ok := <-states:
				if !ok {
					return
				}
				m.handleAuthState(ctx, state)
			case <-ctx.Done():
				stop()
				return
			}
		}
	}()
}

func (m *Manager) handleAuthState(ctx context.Context, state *provider.AuthState) {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()

	if state == nil {
		m.publish(nil)
		return
	}

	user := &model.User{
		Id:          state.UserId,
		Email:       state.Email,
		DisplayName: state.DisplayName,
		PhotoUrl:    state.PhotoUrl,
	}

	// The user record may carry a richer display name and photo than the
	// provider profile; prefer it when present.
	doc, err := m.store.Get(ctx, provider.CollectionUsers, state.UserId)
	if err == nil {
		record := model.UserFromDocument(doc)
		if record.DisplayName != "" {
			user.DisplayName = record.DisplayName
		}
		if record.PhotoUrl != "" {
			user.PhotoUrl = record.PhotoUrl
		}
		if record.Email != "" {
			user.Email = record.Email
		}
	} else if err != provider.ErrNotFound {
		Logger.Log.Warnf("failed to resolve user record for %s: %v", state.UserId, err)
	}
	if user.DisplayName == "" {
		user.DisplayName = "User"
	}

	m.publish(user)
}

func (m *Manager) publish(user *model.User) {
	m.mu.Lock()
	m.current = user
	m.resolving = false
	channels := make([]chan *model.User, 0, len(m.subscribers))
	for _, ch := range m.subscribers {
		channels = append(channels, ch)
	}
	m.mu.Unlock()

	for _, ch := range channels {
		// Each listener gets its own copy so none can mutate shared state.
		value := user
		if user != nil {
			clone := &model.User{}
			if err := copier.Copy(clone, user); err == nil {
				value = clone
			}
		}
		// Latest value wins: evict an undrained pending value rather than
		// block or drop the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- value:
		default:
		}
	}
}

// CurrentIdentity returns the signed-in user, nil when signed out.
func (m *Manager) CurrentIdentity() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Resolving is true until the first auth-state event has been processed.
func (m *Manager) Resolving() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolving
}

// Subscribe registers a listener for identity transitions. The listener is
// removed when ctx terminates.
func (m *Manager) Subscribe(ctx context.Context) <-chan *model.User {
	chId := "session_" + uuid.New().String()
	ch := make(chan *model.User, 1)

	m.mu.Lock()
	m.subscribers[chId] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subscribers, chId)
		m.mu.Unlock()
	}()

	return ch
}

// ActiveSubscriberCount reports the number of registered listeners.
func (m *Manager) ActiveSubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// SignUp creates the provider credential, sets the display name and writes
// the user record. The subsequent auth-state event publishes the identity.
func (m *Manager) SignUp(ctx context.Context, email string, password string, displayName string) error {
	state, err := m.auth.CreateAccount(ctx, email, password)
	if err != nil {
		return &AuthError{Op: "sign-up", Err: err}
	}
	if err := m.auth.UpdateDisplayName(ctx, state.UserId, displayName); err != nil {
		return &AuthError{Op: "sign-up", Err: err}
	}
	err = m.store.Set(ctx, provider.CollectionUsers, state.UserId, provider.Document{
		"uid":         state.UserId,
		"email":       email,
		"displayName": displayName,
		"createdAt":   provider.ServerTimestamp,
	})
	if err != nil {
		return &AuthError{Op: "sign-up", Err: err}
	}

	// The provider broadcast for this transition may have been resolved
	// before the user record existed; re-resolve now that it does. Whichever
	// resolution runs last reads the written record, so both orders converge
	// on the same identity.
	m.handleAuthState(ctx, &provider.AuthState{
		UserId:      state.UserId,
		Email:       email,
		DisplayName: displayName,
	})
	return nil
}

// SignIn authenticates against the provider. The identity itself is
// published through the auth-state subscription.
func (m *Manager) SignIn(ctx context.Context, email string, password string) error {
	if _, err := m.auth.SignIn(ctx, email, password); err != nil {
		return &AuthError{Op: "sign-in", Err: err}
	}
	return nil
}

// SignOut clears the local session unconditionally. A remote failure is
// still returned, but never leaves a stale signed-in identity behind.
func (m *Manager) SignOut(ctx context.Context) error {
	m.handleAuthState(ctx, nil)
	if err := m.auth.SignOut(ctx); err != nil {
		Logger.Log.Warnf("remote sign-out failed, local session already cleared: %v", err)
		return &AuthError{Op: "sign-out", Err: err}
	}
	return nil
}
