package storage

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps encoded records in maps so callers never share memory with the store
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	templates   map[string][]byte
	states      map[string][]byte
	snapshots   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.templates = make(map[string][]byte)
	s.states = make(map[string][]byte)
	s.snapshots = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) put(m map[string][]byte, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	m[key] = payload
	return nil
}

func (s *MemoryStore) get(m map[string][]byte, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	payload, ok := m[key]
	return payload, ok, nil
}

func (s *MemoryStore) keys(m map[string][]byte) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return slices.Sorted(maps.Keys(m)), nil
}

func (s *MemoryStore) SaveTemplate(_ context.Context, tpl TemplateRecord) error {
	payload, err := EncodeTemplate(tpl)
	if err != nil {
		return err
	}
	return s.put(s.templates, tpl.Name, payload)
}

func (s *MemoryStore) GetTemplate(_ context.Context, name string) (TemplateRecord, bool, error) {
	payload, ok, err := s.get(s.templates, name)
	if err != nil || !ok {
		return TemplateRecord{}, false, err
	}
	rec, err := DecodeTemplate(payload)
	if err != nil {
		return TemplateRecord{}, false, err
	}
	return rec, true, nil
}

func (s *MemoryStore) ListTemplates(_ context.Context) ([]string, error) {
	return s.keys(s.templates)
}

func (s *MemoryStore) SaveState(_ context.Context, st StateRecord) error {
	payload, err := EncodeStateRecord(st)
	if err != nil {
		return err
	}
	return s.put(s.states, st.ID, payload)
}

func (s *MemoryStore) GetState(_ context.Context, id string) (StateRecord, bool, error) {
	payload, ok, err := s.get(s.states, id)
	if err != nil || !ok {
		return StateRecord{}, false, err
	}
	rec, err := DecodeStateRecord(payload)
	if err != nil {
		return StateRecord{}, false, err
	}
	return rec, true, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return s.put(s.snapshots, snap.ID, payload)
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (Snapshot, bool, error) {
	payload, ok, err := s.get(s.snapshots, id)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context) ([]string, error) {
	return s.keys(s.snapshots)
}

func (s *MemoryStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.snapshots, id)
	return nil
}
