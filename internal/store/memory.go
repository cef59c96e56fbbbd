package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memKey struct {
	collection string
	id         string
}

// MemoryStore is an in-process Store. Documents are kept as decoded objects and re-encoded on read.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[memKey]*memDoc
	uniques map[string][]string
	nowF    func() time.Time
	seq     int64
}

type memDoc struct {
	fields    map[string]any
	createdAt time.Time
	updatedAt time.Time
	seq       int64
}

// NewMemoryStore returns an empty store enforcing uniques (typically DefaultUniques).
func NewMemoryStore(uniques ...Unique) *MemoryStore {
	u := make(map[string][]string)
	for _, x := range uniques {
		u[x.Collection] = append(u[x.Collection], x.Field)
	}
	return &MemoryStore{
		docs:    make(map[memKey]*memDoc),
		uniques: u,
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for created/updated stamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowF = now
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[memKey{collection, id}]
	if !ok {
		return nil, ErrNotFound
	}
	return d.document(collection, id)
}

func (s *MemoryStore) Find(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type hit struct {
		id  string
		doc *memDoc
	}
	var hits []hit
	for k, d := range s.docs {
		if k.collection == collection && d.matches(filters) {
			hits = append(hits, hit{k.id, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].doc.seq < hits[j].doc.seq })
	out := make([]*Document, 0, len(hits))
	for _, h := range hits {
		doc, err := h.doc.document(collection, h.id)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, data any) (*Document, error) {
	fields, err := toFields(data)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.New().String()
	}
	key := memKey{collection, id}
	if _, exists := s.docs[key]; exists {
		return nil, ErrConflict
	}
	if s.violatesUnique(collection, id, fields) {
		return nil, ErrConflict
	}
	now := s.nowF()
	s.seq++
	d := &memDoc{fields: fields, createdAt: now, updatedAt: now, seq: s.seq}
	s.docs[key] = d
	return d.document(collection, id)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch any) (*Document, error) {
	fields, err := toFields(patch)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[memKey{collection, id}]
	if !ok {
		return nil, ErrNotFound
	}
	if err := s.merge(collection, id, d, fields); err != nil {
		return nil, err
	}
	return d.document(collection, id)
}

func (s *MemoryStore) UpdateIf(ctx context.Context, collection, id string, cond Filter, patch any) (bool, error) {
	fields, err := toFields(patch)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[memKey{collection, id}]
	if !ok || !d.matches([]Filter{cond}) {
		return false, nil
	}
	if err := s.merge(collection, id, d, fields); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) UpdateIfCreatedAt(ctx context.Context, collection, id string, createdAt time.Time, cond Filter, patch any) (bool, error) {
	fields, err := toFields(patch)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[memKey{collection, id}]
	if !ok || !d.createdAt.Equal(createdAt) || !d.matches([]Filter{cond}) {
		return false, nil
	}
	if err := s.merge(collection, id, d, fields); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey{collection, id}
	if _, ok := s.docs[key]; !ok {
		return ErrNotFound
	}
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) DeleteWhere(ctx context.Context, collection string, filters ...Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, d := range s.docs {
		if k.collection == collection && d.matches(filters) {
			delete(s.docs, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteIfCreatedAt(ctx context.Context, collection, id string, createdAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey{collection, id}
	d, ok := s.docs[key]
	if !ok || !d.createdAt.Equal(createdAt) {
		return false, nil
	}
	delete(s.docs, key)
	return true, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) merge(collection, id string, d *memDoc, patch map[string]any) error {
	next := make(map[string]any, len(d.fields)+len(patch))
	for k, v := range d.fields {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = v
	}
	if s.violatesUnique(collection, id, next) {
		return ErrConflict
	}
	d.fields = next
	d.updatedAt = s.nowF()
	return nil
}

// violatesUnique reports whether fields collide with another document's unique field. Caller holds mu.
func (s *MemoryStore) violatesUnique(collection, id string, fields map[string]any) bool {
	for _, field := range s.uniques[collection] {
		v, ok := textValue(fields, field)
		if !ok || v == "" {
			continue
		}
		for k, other := range s.docs {
			if k.collection != collection || k.id == id {
				continue
			}
			if ov, ok := textValue(other.fields, field); ok && ov == v {
				return true
			}
		}
	}
	return false
}

func (d *memDoc) matches(filters []Filter) bool {
	for _, f := range filters {
		v, ok := textValue(d.fields, f.Field)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

func (d *memDoc) document(collection, id string) (*Document, error) {
	b, err := json.Marshal(d.fields)
	if err != nil {
		return nil, err
	}
	return &Document{Collection: collection, ID: id, Data: b, CreatedAt: d.createdAt, UpdatedAt: d.updatedAt}, nil
}

func toFields(v any) (map[string]any, error) {
	raw, err := marshalObject(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// textValue renders a top-level field the way Postgres' ->> operator does.
func textValue(fields map[string]any, field string) (string, bool) {
	v, ok := fields[field]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x), true
		}
		return string(b), true
	}
}
