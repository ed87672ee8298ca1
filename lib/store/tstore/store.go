package tstore

import (
	"github.com/kyamasaki/goht/lib/store"
	"github.com/kyamasaki/goht/lib/table"
)

type storeImpl struct {
	t *table.Table[string]
}

// NewTableStore creates a store backed by a freshly created string-keyed
// table with the given initial capacity. The table is destroyed by Close; a
// store that is never closed is swept by table.Shutdown like any other leaked
// table.
func NewTableStore(capacity uint64) (store.IStore, error) {
	t, err := table.NewStringTable(capacity)
	if err != nil {
		return nil, err
	}
	return &storeImpl{t: t}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	return s.t.Set(key, value)
}

func (s *storeImpl) SetIfAbsent(key string, value []byte) (bool, error) {
	return s.t.SetIfAbsent(key, value)
}

func (s *storeImpl) SetRaw(key string, value any) error {
	return s.t.SetRaw(key, value)
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	v, err := s.t.Get(key)
	if err != nil {
		if table.CodeOf(err) == table.CodeKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	b, ok := v.([]byte)
	if !ok {
		// raw value of some other type; present, but not byte-shaped
		return nil, true, nil
	}

	// copy so the caller can mutate the result without reaching into the
	// table's own allocation
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, true, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	return s.t.Has(key)
}

func (s *storeImpl) Delete(key string) error {
	return s.t.Delete(key)
}

func (s *storeImpl) Values() ([][]byte, error) {
	snap, err := s.t.Snapshot()
	if err != nil {
		return nil, err
	}
	// the snapshot is only a vehicle here, release it right away
	defer func() { _ = snap.Release() }()

	values := make([][]byte, 0, snap.Len())
	for _, v := range snap.Values() {
		b, ok := v.([]byte)
		if !ok {
			continue
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		values = append(values, cp)
	}
	return values, nil
}

func (s *storeImpl) Info() (table.TableInfo, error) {
	return s.t.Info()
}

func (s *storeImpl) Close() error {
	return s.t.Destroy()
}
