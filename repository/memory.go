package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// NewMemory returns a repository that keeps everything in process memory.
// It is meant for local runs and tests.
func NewMemory() *Repository {
	return newRepository(
		newMemoryKV(BucketPizzas),
		newMemoryKV(BucketOrders),
		newMemoryKV(BucketOrderInfos),
		newMemoryKV(BucketPayments),
		newMemoryKV(BucketPeople),
	)
}

type memoryEntry struct {
	bucket   string
	key      string
	value    []byte
	revision uint64
	created  time.Time
}

func (e memoryEntry) Bucket() string                 { return e.bucket }
func (e memoryEntry) Key() string                    { return e.key }
func (e memoryEntry) Value() []byte                  { return slices.Clone(e.value) }
func (e memoryEntry) Revision() uint64               { return e.revision }
func (e memoryEntry) Created() time.Time             { return e.created }
func (e memoryEntry) Delta() uint64                  { return 0 }
func (e memoryEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

type memoryLister struct {
	keys chan string
}

func (l memoryLister) Keys() <-chan string { return l.keys }
func (l memoryLister) Stop() error         { return nil }

type memoryKV struct {
	bucket   string
	mu       sync.Mutex
	revision uint64
	entries  map[string]memoryEntry
}

func newMemoryKV(bucket string) *memoryKV {
	return &memoryKV{bucket: bucket, entries: map[string]memoryEntry{}}
}

func (m *memoryKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revision++
	m.entries[key] = memoryEntry{
		bucket:   m.bucket,
		key:      key,
		value:    slices.Clone(value),
		revision: m.revision,
		created:  time.Now(),
	}
	return m.revision, nil
}

func (m *memoryKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return e, nil
}

func (m *memoryKV) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryKV) ListKeys(_ context.Context, _ ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	ch := make(chan string, len(m.entries))
	for k := range m.entries {
		ch <- k
	}
	close(ch)
	return memoryLister{keys: ch}, nil
}
