package ledger

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// lockTable serializes balance mutations per account: at most one in-flight
// mutation per account at any instant. Locks for multi-account operations are
// always acquired in ascending id order so two concurrent transfers over the
// same pair cannot deadlock.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (t *lockTable) get(id uuid.UUID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[id]
	if !ok {
		m = &sync.Mutex{}
		t.locks[id] = m
	}
	return m
}

// lock acquires exclusivity on every given account and returns the release
// func. Duplicate ids are collapsed so a self-referencing operation cannot
// self-deadlock.
func (t *lockTable) lock(ids ...uuid.UUID) func() {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(unique[i][:], unique[j][:]) < 0
	})

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := t.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
