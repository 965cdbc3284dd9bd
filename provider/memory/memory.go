// Package memory is a full in-process implementation of the provider
// contract, used by local development and tests. Change notifications flow
// through an in-process event bus; every write publishes a poke on the
// collection's topic and standing watches re-run their query to deliver a
// fresh full snapshot.
package memory

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/framez-app/framez-go/provider"
	"github.com/google/uuid"
)

const changeTopicPrefix = "collection_changed_"

// Store is an in-memory provider.DocStore. All documents are deep-copied on
// the way in and out so snapshots never alias store state.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]provider.Document

	// bus fans out change notifications to active watches. A golang channel
	// implementation is enough here; a hosted backend would push the same
	// notifications over its own transport.
	bus *gochannel.GoChannel

	calls         int64
	writeCalls    int64
	failNextWrite error
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]provider.Document),
		bus: gochannel.NewGoChannel(
			// Buffered so a slow watch consumer never blocks writers.
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
	}
}

// FailNextWrite makes the next write operation fail with the given error,
// wrapped in a provider.WriteError. Used to simulate remote write failures.
func (s *Store) FailNextWrite(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextWrite = err
}

// Calls returns the total number of store operations issued, reads included.
func (s *Store) Calls() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// WriteCalls returns the number of write operations issued.
func (s *Store) WriteCalls() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeCalls
}

func (s *Store) Create(ctx context.Context, collection string, fields provider.Document) (string, error) {
	id := uuid.New().String()
	if err := s.put(collection, id, fields, false); err != nil {
		return "", err
	}
	s.notify(collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection string, id string, fields provider.Document) error {
	if err := s.put(collection, id, fields, false); err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection string, id string, fields provider.Document) error {
	if err := s.put(collection, id, fields, true); err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (provider.Document, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, provider.ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	s.mu.Lock()
	s.calls++
	s.writeCalls++
	if s.failNextWrite != nil {
		err := s.failNextWrite
		s.failNextWrite = nil
		s.mu.Unlock()
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *Store) Query(ctx context.Context, q provider.Query) (provider.Snapshot, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	return s.runQuery(q), nil
}

// Watch delivers the current snapshot immediately, then a full snapshot on
// every subsequent change to the collection. The stop function is idempotent
// and prevents any further delivery once it returns.
func (s *Store) Watch(ctx context.Context, q provider.Query) (<-chan provider.Snapshot, func(), error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	messages, err := s.bus.Subscribe(subCtx, changeTopicPrefix+q.Collection)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan provider.Snapshot, 1)

	go func() {
		defer close(out)

		// Initial snapshot, delivered before any change notification.
		select {
		case out <- s.runQuery(q):
		case <-subCtx.Done():
			return
		}

		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				msg.Ack()
				select {
				case out <- s.runQuery(q):
				case <-subCtx.Done():
					return
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(cancel)
	}
	return out, stop, nil
}

func (s *Store) put(collection string, id string, fields provider.Document, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.writeCalls++
	if s.failNextWrite != nil {
		err := s.failNextWrite
		s.failNextWrite = nil
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}

	if _, ok := s.collections[collection]; !ok {
		s.collections[collection] = make(map[string]provider.Document)
	}

	doc := provider.Document{}
	if merge {
		if existing, ok := s.collections[collection][id]; ok {
			doc = cloneDocument(existing)
		}
	}
	for k, v := range cloneDocument(fields) {
		if v == provider.ServerTimestamp {
			v = time.Now()
		}
		doc[k] = v
	}
	doc["id"] = id
	s.collections[collection][id] = doc
	return nil
}

func (s *Store) notify(collection string) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(collection))
	// Publish never fails for the golang channel bus unless it is closed.
	_ = s.bus.Publish(changeTopicPrefix+collection, msg)
}

func (s *Store) runQuery(q provider.Query) provider.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := provider.Snapshot{}
	for _, doc := range s.collections[q.Collection] {
		if matchesFilters(doc, q.Filters) {
			snapshot = append(snapshot, cloneDocument(doc))
		}
	}

	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Descending
		sort.SliceStable(snapshot, func(i, j int) bool {
			if desc {
				return lessThan(snapshot[j][field], snapshot[i][field])
			}
			return lessThan(snapshot[i][field], snapshot[j][field])
		})
	}
	return snapshot
}

func matchesFilters(doc provider.Document, filters []provider.Filter) bool {
	for _, f := range filters {
		if !reflect.DeepEqual(doc[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// lessThan compares two field values of the same dynamic type. Unknown or
// mismatched types compare as equal, which keeps the ordering stable.
func lessThan(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return false
}

func cloneDocument(doc provider.Document) provider.Document {
	cloned := provider.Document{}
	for k, v := range doc {
		cloned[k] = cloneValue(v)
	}
	return cloned
}

// cloneValue copies container values recursively. Scalars and time.Time are
// value types already and pass through unchanged.
func cloneValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case []string:
		out := make([]string, len(vv))
		copy(out, vv)
		return out
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, e := range vv {
			out[k] = cloneValue(e)
		}
		return out
	case provider.Document:
		return cloneDocument(vv)
	default:
		return v
	}
}
