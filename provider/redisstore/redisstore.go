// Package redisstore implements the document store capability on redis.
// Documents are JSON strings under per-document keys, collection membership
// is a set, and change notifications fan out over redis pub/sub so that
// standing watches behave exactly like the in-memory provider's.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/framez-app/framez-go/provider"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const delimiter = "__"

// Store is a redis backed provider.DocStore. Filtering and ordering are
// evaluated client-side on the fetched collection, which is the same
// equality-plus-single-order capability the contract requires.
type Store struct {
	inner  *redis.Client
	prefix string
}

func NewStore(client *redis.Client) *Store {
	return &Store{inner: client, prefix: "framez"}
}

// GetStoreFromEnv connects using REDIS_HOST, REDIS_PORT and REDIS_PASSWD and
// verifies the connection with a ping.
func GetStoreFromEnv() (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return NewStore(client), nil
}

func (s *Store) docKey(collection, id string) string {
	return s.prefix + delimiter + collection + delimiter + id
}

func (s *Store) collectionKey(collection string) string {
	return s.prefix + delimiter + collection
}

func (s *Store) changeChannel(collection string) string {
	return s.prefix + delimiter + "changes" + delimiter + collection
}

func (s *Store) Create(ctx context.Context, collection string, fields provider.Document) (string, error) {
	id := uuid.New().String()
	if err := s.write(ctx, collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection string, id string, fields provider.Document) error {
	return s.write(ctx, collection, id, fields, false)
}

func (s *Store) Update(ctx context.Context, collection string, id string, fields provider.Document) error {
	return s.write(ctx, collection, id, fields, true)
}

func (s *Store) write(ctx context.Context, collection string, id string, fields provider.Document, merge bool) error {
	doc := provider.Document{}
	if merge {
		existing, err := s.Get(ctx, collection, id)
		if err != nil && err != provider.ErrNotFound {
			return &provider.WriteError{Collection: collection, Id: id, Err: err}
		}
		for k, v := range existing {
			doc[k] = v
		}
	}
	for k, v := range fields {
		if v == provider.ServerTimestamp {
			// Redis has no server-side clock for values; the store's own
			// clock is the closest authority available.
			v = time.Now().UTC()
		}
		doc[k] = v
	}
	doc["id"] = id

	payload, err := json.Marshal(doc)
	if err != nil {
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}
	if err := s.inner.Set(ctx, s.docKey(collection, id), payload, 0).Err(); err != nil {
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}
	if err := s.inner.SAdd(ctx, s.collectionKey(collection), id).Err(); err != nil {
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}
	s.notify(ctx, collection)
	return nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (provider.Document, error) {
	payload, err := s.inner.Get(ctx, s.docKey(collection, id)).Result()
	if err == redis.Nil {
		return nil, provider.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get failed")
	}
	doc := provider.Document{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, errors.Wrap(err, "corrupt document payload")
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	if err := s.inner.Del(ctx, s.docKey(collection, id)).Err(); err != nil {
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}
	if err := s.inner.SRem(ctx, s.collectionKey(collection), id).Err(); err != nil {
		return &provider.WriteError{Collection: collection, Id: id, Err: err}
	}
	s.notify(ctx, collection)
	return nil
}

func (s *Store) Query(ctx context.Context, q provider.Query) (provider.Snapshot, error) {
	ids, err := s.inner.SMembers(ctx, s.collectionKey(q.Collection)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis smembers failed")
	}

	snapshot := provider.Snapshot{}
	for _, id := range ids {
		doc, err := s.Get(ctx, q.Collection, id)
		if err == provider.ErrNotFound {
			// Deleted between SMEMBERS and GET, skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		if matchesFilters(doc, q.Filters) {
			snapshot = append(snapshot, doc)
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
	return snapshot, nil
}

func (s *Store) Watch(ctx context.Context, q provider.Query) (<-chan provider.Snapshot, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.inner.Subscribe(subCtx, s.changeChannel(q.Collection))

	out := make(chan provider.Snapshot, 1)

	go func() {
		defer close(out)
		defer pubsub.Close()

		deliver := func() bool {
			snapshot, err := s.Query(subCtx, q)
			if err != nil {
				// Treated as no data yet, the watch stays open.
				return true
			}
			select {
			case out <- snapshot:
				return true
			case <-subCtx.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		messages := pubsub.Channel()
		for {
			select {
			case _, ok := <-messages:
				if !ok {
					return
				}
				if !deliver() {
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

func (s *Store) notify(ctx context.Context, collection string) {
	// Losing a notification only delays redelivery until the next change;
	// writes must not fail because of it.
	_ = s.inner.Publish(ctx, s.changeChannel(collection), "changed").Err()
}

func matchesFilters(doc provider.Document, filters []provider.Filter) bool {
	for _, f := range filters {
		if fmt.Sprintf("%v", doc[f.Field]) != fmt.Sprintf("%v", f.Value) {
			return false
		}
	}
	return true
}

// lessThan compares JSON-decoded field values. Timestamps round-trip as
// RFC3339 strings, which order correctly under plain string comparison.
func lessThan(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	}
	return false
}
