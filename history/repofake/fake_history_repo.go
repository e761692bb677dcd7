package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/momstretch/momstretch-server/history"
)

var _ history.Repo = (*FakeHistoryRepo)(nil)

type FakeHistoryRepo struct {
	entries []*history.Entry
	lock    sync.RWMutex
}

func NewFakeHistoryRepo() *FakeHistoryRepo {
	return &FakeHistoryRepo{}
}

func (hr *FakeHistoryRepo) Record(_ context.Context, entry *history.Entry) error {
	hr.lock.Lock()
	defer hr.lock.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	c := *entry
	hr.entries = append(hr.entries, &c)
	return nil
}

func (hr *FakeHistoryRepo) ListByAccount(_ context.Context, accountID string) ([]*history.Entry, error) {
	hr.lock.RLock()
	defer hr.lock.RUnlock()

	var entries []*history.Entry
	for _, entry := range hr.entries {
		if entry.AccountID == accountID {
			c := *entry
			entries = append(entries, &c)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}
