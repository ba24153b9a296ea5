package reactive

import (
	"sync"
)

// registryStore is the concurrent identity-to-cell table backing a Registry.
type registryStore struct {
	data sync.Map
}

func newRegistryStore() *registryStore {
	return &registryStore{}
}

func (s *registryStore) Load(id cellIdentity) (AnyCell, bool) {
	value, ok := s.data.Load(id)
	if !ok {
		return nil, false
	}
	return value.(AnyCell), true
}

func (s *registryStore) Store(id cellIdentity, cell AnyCell) {
	s.data.Store(id, cell)
}

func (s *registryStore) Delete(id cellIdentity) {
	s.data.Delete(id)
}

func (s *registryStore) Range(fn func(id cellIdentity, cell AnyCell) bool) {
	s.data.Range(func(key, value any) bool {
		return fn(key.(cellIdentity), value.(AnyCell))
	})
}

func (s *registryStore) Clear() {
	s.data.Range(func(key, value any) bool {
		s.data.Delete(key)
		return true
	})
}
