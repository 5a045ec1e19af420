package persistent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process DocumentStore. It backs local runs without a
// database and the package tests of everything built on the store.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]map[string]map[string]interface{}
	listeners map[string]map[int]*memoryListener
	nextID    int
}

type memoryListener struct {
	onChange func(Snapshot)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:      map[string]map[string]map[string]interface{}{},
		listeners: map[string]map[int]*memoryListener{},
	}
}

func (s *MemoryStore) Connect(ctx context.Context) error    { return nil }
func (s *MemoryStore) Disconnect(ctx context.Context) error { return nil }

func (s *MemoryStore) NewID(collection string) string {
	return uuid.NewString()
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, dst interface{}) (bool, error) {
	s.mu.RLock()
	doc, ok := s.data[collection][id]
	if !ok {
		s.mu.RUnlock()
		return false, nil
	}
	err := decodeDocument(doc, dst)
	s.mu.RUnlock()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc interface{}) error {
	m, err := toDocument(doc)
	if err != nil {
		return err
	}
	m[FieldID] = id

	s.mu.Lock()
	if s.data[collection] == nil {
		s.data[collection] = map[string]map[string]interface{}{}
	}
	s.data[collection][id] = m
	notify := s.pendingNotifications(collection, id)
	s.mu.Unlock()

	notify()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return s.mutate(collection, id, func(doc map[string]interface{}) error {
		for path, value := range fields {
			setPath(doc, path, jsonValue(value))
		}
		return nil
	})
}

func (s *MemoryStore) Increment(ctx context.Context, collection, id string, deltas map[string]interface{}) error {
	return s.mutate(collection, id, func(doc map[string]interface{}) error {
		for path, delta := range deltas {
			d, ok := toFloat(delta)
			if !ok {
				return fmt.Errorf("increment of %s needs a number, got %T", path, delta)
			}
			current, _ := toFloat(getPath(doc, path))
			setPath(doc, path, current+d)
		}
		return nil
	})
}

func (s *MemoryStore) AddToSet(ctx context.Context, collection, id, field string, value interface{}) error {
	return s.mutate(collection, id, func(doc map[string]interface{}) error {
		v := jsonValue(value)
		existing, _ := getPath(doc, field).([]interface{})
		for _, e := range existing {
			if reflect.DeepEqual(e, v) {
				return nil
			}
		}
		setPath(doc, field, append(existing, v))
		return nil
	})
}

// mutate applies fn to a stored document under the write lock.
func (s *MemoryStore) mutate(collection, id string, fn func(map[string]interface{}) error) error {
	s.mu.Lock()
	doc, ok := s.data[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if err := fn(doc); err != nil {
		s.mu.Unlock()
		return err
	}
	notify := s.pendingNotifications(collection, id)
	s.mu.Unlock()

	notify()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.data[collection], id)
	notify := s.pendingNotifications(collection, id)
	s.mu.Unlock()

	notify()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query, dst interface{}) error {
	if err := q.validate(); err != nil {
		return err
	}

	s.mu.RLock()
	var matches []map[string]interface{}
	for _, doc := range s.data[q.Collection] {
		if matchesAll(doc, q.Filters) {
			matches = append(matches, doc)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matches, func(i, j int) bool {
			c := compareValues(getPath(matches[i], q.OrderBy), getPath(matches[j], q.OrderBy))
			if c == 0 && q.ThenBy != "" {
				c = compareValues(getPath(matches[i], q.ThenBy), getPath(matches[j], q.ThenBy))
			}
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	err := decodeAll(matches, dst)
	s.mu.RUnlock()
	return err
}

func (s *MemoryStore) Watch(ctx context.Context, collection, id string, onChange func(Snapshot), onError func(error)) (func(), error) {
	key := collection + "/" + id
	l := &memoryListener{onChange: onChange}

	s.mu.Lock()
	s.nextID++
	handle := s.nextID
	if s.listeners[key] == nil {
		s.listeners[key] = map[int]*memoryListener{}
	}
	s.listeners[key][handle] = l
	snap := s.snapshot(collection, id)
	s.mu.Unlock()

	onChange(snap)

	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners[key], handle)
			s.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop, nil
}

// pendingNotifications captures the listeners of a document and its current
// state. It must be called with the write lock held; the returned function
// runs the callbacks and must be called after the lock is released.
func (s *MemoryStore) pendingNotifications(collection, id string) func() {
	listeners := s.listeners[collection+"/"+id]
	if len(listeners) == 0 {
		return func() {}
	}
	snap := s.snapshot(collection, id)
	callbacks := make([]func(Snapshot), 0, len(listeners))
	for _, l := range listeners {
		callbacks = append(callbacks, l.onChange)
	}
	return func() {
		for _, cb := range callbacks {
			cb(snap)
		}
	}
}

func (s *MemoryStore) snapshot(collection, id string) Snapshot {
	doc, ok := s.data[collection][id]
	if !ok {
		return Snapshot{}
	}
	copied, _ := jsonValue(doc).(map[string]interface{})
	return Snapshot{Exists: true, data: copied}
}

func matchesAll(doc map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		value := getPath(doc, f.Field)
		switch f.Op {
		case OpEqual:
			if compareValues(value, jsonValue(f.Value)) != 0 {
				return false
			}
		case OpGreaterOrEqual:
			if value == nil || compareValues(value, jsonValue(f.Value)) < 0 {
				return false
			}
		case OpLessOrEqual:
			if value == nil || compareValues(value, jsonValue(f.Value)) > 0 {
				return false
			}
		case OpIn:
			candidates, _ := toSlice(f.Value)
			found := false
			for _, c := range candidates {
				if compareValues(value, jsonValue(c)) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// compareValues orders missing values first, then numbers, then strings.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
		return -1
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
		return 1
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// jsonValue converts v into the shapes stored documents hold.
func jsonValue(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func getPath(doc map[string]interface{}, path string) interface{} {
	parts := strings.Split(path, ".")
	var current interface{} = doc
	for _, p := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[p]
	}
	return current
}

func setPath(doc map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	current := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := current[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[p] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
