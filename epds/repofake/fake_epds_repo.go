package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/momstretch/momstretch-server/epds"
)

var _ epds.Repo = (*FakeEPDSRepo)(nil)

type FakeEPDSRepo struct {
	records []*epds.Record
	lock    sync.RWMutex
}

func NewFakeEPDSRepo() *FakeEPDSRepo {
	return &FakeEPDSRepo{}
}

func (er *FakeEPDSRepo) Save(_ context.Context, record *epds.Record) error {
	er.lock.Lock()
	defer er.lock.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	c := *record
	er.records = append(er.records, &c)
	return nil
}

func (er *FakeEPDSRepo) ListByAccount(_ context.Context, accountID string) ([]*epds.Record, error) {
	er.lock.RLock()
	defer er.lock.RUnlock()

	var records []*epds.Record
	for _, record := range er.records {
		if record.AccountID == accountID {
			c := *record
			records = append(records, &c)
		}
	}
	// Stable so same-day records keep insertion order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}
