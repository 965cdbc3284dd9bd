// Package theme persists the user's display preference and resolves the
// effective appearance from the preference plus the OS appearance signal.
package theme

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/framez-app/framez-go/model"
	Logger "github.com/framez-app/framez-go/utils/log"
	"github.com/google/uuid"
)

const prefFileName = "theme.json"

// preference is the on-disk shape, a single named key per the storage
// contract.
type preference struct {
	ThemeMode model.ThemeMode `json:"themeMode"`
}

// Store is the process-wide theme preference owner. Reads are lock-free
// snapshots; writes go through SetMode and SetSystemDark only.
type Store struct {
	mu         sync.RWMutex
	mode       model.ThemeMode
	systemDark bool
	path       string

	// observers are notified whenever the effective appearance may have
	// changed, keyed by uuid for O(1) removal.
	observers map[string]chan bool
}

// NewStore loads the persisted preference from dir (created if missing) and
// defaults to system mode on first launch or unreadable state.
func NewStore(dir string, systemDark bool) *Store {
	s := &Store{
		mode:       model.ThemeSystem,
		systemDark: systemDark,
		path:       filepath.Join(dir, prefFileName),
		observers:  make(map[string]chan bool),
	}

	if raw, err := ioutil.ReadFile(s.path); err == nil {
		var pref preference
		if err := json.Unmarshal(raw, &pref); err == nil && pref.ThemeMode.IsValid() {
			s.mode = pref.ThemeMode
		} else {
			Logger.Log.Warnf("ignoring corrupt theme preference at %s", s.path)
		}
	}
	return s
}

// Mode returns the stored preference.
func (s *Store) Mode() model.ThemeMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// EffectiveIsDark resolves the appearance: the OS signal when mode is system,
// the literal mode otherwise.
func (s *Store) EffectiveIsDark() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked()
}

func (s *Store) resolveLocked() bool {
	if s.mode == model.ThemeSystem {
		return s.systemDark
	}
	return s.mode == model.ThemeDark
}

// SetMode persists the preference before updating in-memory state. A
// persistence failure is logged and the in-memory mode still updated; a
// restart may then lose the change, which is accepted best-effort durability.
func (s *Store) SetMode(mode model.ThemeMode) {
	if !mode.IsValid() {
		Logger.Log.Warnf("ignoring unknown theme mode %q", mode)
		return
	}

	if err := s.persist(mode); err != nil {
		Logger.Log.Warnf("failed to persist theme preference: %v", err)
	}

	s.mu.Lock()
	s.mode = mode
	dark := s.resolveLocked()
	s.mu.Unlock()

	s.notify(dark)
}

// SetSystemDark feeds the OS-reported appearance into the store.
func (s *Store) SetSystemDark(dark bool) {
	s.mu.Lock()
	s.systemDark = dark
	effective := s.resolveLocked()
	s.mu.Unlock()

	s.notify(effective)
}

func (s *Store) persist(mode model.ThemeMode) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(preference{ThemeMode: mode})
	if err != nil {
		return err
	}
	return ioutil.WriteFile(s.path, raw, 0o644)
}

// Subscribe registers an observer for effective-appearance recomputes. The
// observer is removed when ctx terminates.
func (s *Store) Subscribe(ctx context.Context) <-chan bool {
	obsId := "theme_" + uuid.New().String()
	ch := make(chan bool, 1)

	s.mu.Lock()
	s.observers[obsId] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.observers, obsId)
		s.mu.Unlock()
	}()

	return ch
}

func (s *Store) notify(dark bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.observers {
		// Latest value wins.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- dark:
		default:
		}
	}
}
