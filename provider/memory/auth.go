package memory

import (
	"context"
	"sync"

	"github.com/framez-app/framez-go/provider"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const minPasswordLen = 6

// Auth is an in-memory provider.Auth. Auth-state transitions are fanned out
// to every subscriber channel; subscriber entries are garbage collected when
// their context terminates.
type Auth struct {
	mu       sync.RWMutex
	accounts map[string]*account
	current  *provider.AuthState

	// subscribers maps channel id (uuid) to the subscriber's channel so that
	// removal is O(1).
	subscribers map[string]chan *provider.AuthState

	failNext error
}

type account struct {
	password string
	state    provider.AuthState
}

func NewAuth() *Auth {
	return &Auth{
		accounts:    make(map[string]*account),
		subscribers: make(map[string]chan *provider.AuthState),
	}
}

// FailNextCall makes the next auth operation fail with the given error. Used
// to simulate provider outages.
func (a *Auth) FailNextCall(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = err
}

func (a *Auth) takeInjectedFailure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.failNext
	a.failNext = nil
	return err
}

func (a *Auth) CreateAccount(ctx context.Context, email string, password string) (*provider.AuthState, error) {
	if err := a.takeInjectedFailure(); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, errors.New("auth/weak-password: password should be at least 6 characters")
	}

	a.mu.Lock()
	if _, ok := a.accounts[email]; ok {
		a.mu.Unlock()
		return nil, errors.New("auth/email-already-in-use: the email address is already in use")
	}
	acc := &account{
		password: password,
		state: provider.AuthState{
			UserId: uuid.New().String(),
			Email:  email,
		},
	}
	a.accounts[email] = acc
	state := acc.state
	a.current = &state
	a.mu.Unlock()

	a.broadcast(&state)
	return &state, nil
}

func (a *Auth) SignIn(ctx context.Context, email string, password string) (*provider.AuthState, error) {
	if err := a.takeInjectedFailure(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	acc, ok := a.accounts[email]
	if !ok || acc.password != password {
		a.mu.Unlock()
		return nil, errors.New("auth/invalid-credential: the supplied credential is invalid")
	}
	state := acc.state
	a.current = &state
	a.mu.Unlock()

	a.broadcast(&state)
	return &state, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	injected := a.takeInjectedFailure()

	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()

	a.broadcast(nil)
	return injected
}

func (a *Auth) UpdateDisplayName(ctx context.Context, userId string, name string) error {
	if err := a.takeInjectedFailure(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.accounts {
		if acc.state.UserId == userId {
			acc.state.DisplayName = name
			if a.current != nil && a.current.UserId == userId {
				cur := acc.state
				a.current = &cur
			}
			return nil
		}
	}
	return errors.New("auth/user-not-found: no account for the given user id")
}

// SubscribeAuthState delivers the current state immediately, then every
// subsequent transition.
func (a *Auth) SubscribeAuthState(ctx context.Context) (<-chan *provider.AuthState, func()) {
	chId := "auth_" + uuid.New().String()
	ch := make(chan *provider.AuthState, 4)

	a.mu.Lock()
	a.subscribers[chId] = ch
	ch <- a.current
	a.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-subCtx.Done()
		a.mu.Lock()
		delete(a.subscribers, chId)
		a.mu.Unlock()
	}()

	var once sync.Once
	stop := func() {
		once.Do(cancel)
	}
	return ch, stop
}

func (a *Auth) broadcast(state *provider.AuthState) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, ch := range a.subscribers {
		select {
		case ch <- state:
		default:
			// Subscriber is not draining, drop rather than block the
			// auth call.
		}
	}
}
