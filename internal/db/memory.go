package db

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryCollection struct {
	docs  map[string]map[string]any
	order []string
}

// MemoryStore keeps documents in-process as decoded JSON. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	colls  map[string]*memoryCollection
	unique map[string][][]string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls:  make(map[string]*memoryCollection),
		unique: make(map[string][][]string),
	}
}

func (m *MemoryStore) coll(name string) *memoryCollection {
	c, ok := m.colls[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]map[string]any)}
		m.colls[name] = c
	}
	return c
}

func toMap(doc any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("document must be an object: %w", err)
	}
	return out, nil
}

func decodeInto(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func matches(doc map[string]any, filter Filter) bool {
	for k, want := range filter {
		got, ok := lookup(doc, k)
		if r, isRange := want.(Between); isRange {
			n, isNum := got.(float64)
			if !ok || !isNum || n <= float64(r.Min) || n >= float64(r.Max) {
				return false
			}
			continue
		}
		if !ok {
			return false
		}
		w := normalize(want)
		if reflect.DeepEqual(got, w) {
			continue
		}
		if arr, isArr := got.([]any); isArr && containsValue(arr, w) {
			continue
		}
		return false
	}
	return true
}

func containsValue(arr []any, v any) bool {
	for _, el := range arr {
		if reflect.DeepEqual(el, v) {
			return true
		}
	}
	return false
}

func matchesText(doc map[string]any, match map[string]string) bool {
	for k, needle := range match {
		got, ok := lookup(doc, k)
		s, isStr := got.(string)
		if !ok || !isStr || !strings.Contains(strings.ToLower(s), strings.ToLower(needle)) {
			return false
		}
	}
	return true
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			ta, errA := time.Parse(time.RFC3339Nano, av)
			tb, errB := time.Parse(time.RFC3339Nano, bv)
			if errA == nil && errB == nil {
				return ta.Before(tb)
			}
			return av < bv
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return !av && bv
		}
	}
	return a == nil && b != nil
}

// conflicts reports whether doc collides with another document on a unique field set
func (m *MemoryStore) conflicts(coll string, id string, doc map[string]any) bool {
	c := m.coll(coll)
	for _, fields := range m.unique[coll] {
		for otherID, other := range c.docs {
			if otherID == id {
				continue
			}
			same := true
			for _, f := range fields {
				a, _ := lookup(doc, f)
				b, _ := lookup(other, f)
				if !reflect.DeepEqual(a, b) {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

func (m *MemoryStore) Insert(ctx context.Context, coll, id string, doc any) error {
	d, err := toMap(doc)
	if err != nil {
		return err
	}
	d["id"] = id
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("%s %s: %w", coll, id, ErrConflict)
	}
	if m.conflicts(coll, id, d) {
		return fmt.Errorf("%s: %w", coll, ErrConflict)
	}
	c.docs[id] = d
	c.order = append(c.order, id)
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, coll, id string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.coll(coll).docs[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return decodeInto(d, out)
}

func (m *MemoryStore) FindOne(ctx context.Context, coll string, filter Filter, out any) error {
	if err := checkFilter(filter, nil); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.coll(coll)
	for _, id := range c.order {
		if d := c.docs[id]; d != nil && matches(d, filter) {
			return decodeInto(d, out)
		}
	}
	return fmt.Errorf("%s: %w", coll, ErrNotFound)
}

func (m *MemoryStore) selectDocs(coll string, filter Filter, opts *FindOptions) []map[string]any {
	c := m.coll(coll)
	res := make([]map[string]any, 0, len(c.order))
	for _, id := range c.order {
		d := c.docs[id]
		if d == nil || !matches(d, filter) {
			continue
		}
		if opts != nil && !matchesText(d, opts.Match) {
			continue
		}
		res = append(res, d)
	}
	if opts == nil {
		return res
	}
	if opts.Sort != "" {
		sort.SliceStable(res, func(i, j int) bool {
			a, _ := lookup(res[i], opts.Sort)
			b, _ := lookup(res[j], opts.Sort)
			if opts.Desc {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(res)) {
			return res[:0]
		}
		res = res[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(res)) {
		res = res[:opts.Limit]
	}
	return res
}

func (m *MemoryStore) Find(ctx context.Context, coll string, filter Filter, opts *FindOptions, out any) error {
	if err := checkFilter(filter, opts); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decodeInto(m.selectDocs(coll, filter, opts), out)
}

func (m *MemoryStore) Count(ctx context.Context, coll string, filter Filter) (int64, error) {
	if err := checkFilter(filter, nil); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.selectDocs(coll, filter, nil))), nil
}

func (m *MemoryStore) Replace(ctx context.Context, coll, id string, doc any) error {
	d, err := toMap(doc)
	if err != nil {
		return err
	}
	d["id"] = id
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	if m.conflicts(coll, id, d) {
		return fmt.Errorf("%s: %w", coll, ErrConflict)
	}
	c.docs[id] = d
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	cur, ok := c.docs[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	next := make(map[string]any, len(cur)+len(fields))
	for k, v := range cur {
		next[k] = v
	}
	for k, v := range fields {
		next[k] = normalize(v)
	}
	if m.conflicts(coll, id, next) {
		return fmt.Errorf("%s: %w", coll, ErrConflict)
	}
	c.docs[id] = next
	return nil
}

func (m *MemoryStore) UpdateMany(ctx context.Context, coll string, filter Filter, fields map[string]any) (int64, error) {
	if err := checkFilter(filter, nil); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	var n int64
	for _, id := range c.order {
		d := c.docs[id]
		if d == nil || !matches(d, filter) {
			continue
		}
		for k, v := range fields {
			d[k] = normalize(v)
		}
		n++
	}
	return n, nil
}

func (m *MemoryStore) Delete(ctx context.Context, coll, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) EnsureUnique(ctx context.Context, coll string, fields ...string) error {
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique[coll] = append(m.unique[coll], fields)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close(ctx context.Context) error { return nil }
