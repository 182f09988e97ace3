package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutriplan/engine"

	"github.com/dgraph-io/badger/v4"
)

// BadgerQuotaStore keeps counters in an embedded badger store. Badger's
// optimistic transactions detect concurrent writers on commit.
type BadgerQuotaStore struct{ db *badger.DB }

func NewBadgerQuotaStore(db *badger.DB) *BadgerQuotaStore { return &BadgerQuotaStore{db: db} }

type badgerCounter struct {
	Count       int64     `json:"count"`
	Limit       int64     `json:"limit"`
	PeriodStart time.Time `json:"period_start"`
}

func quotaKey(k QuotaKey) []byte {
	return []byte(fmt.Sprintf("quota/%d/%s", k.UserID, k.Resource))
}

func (s *BadgerQuotaStore) Mutate(ctx context.Context, key QuotaKey, fn QuotaMutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := quotaKey(key)
	err := s.db.Update(func(txn *badger.Txn) error {
		var rec badgerCounter
		exists := true
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			exists = false
		case err != nil:
			return err
		default:
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
				return fmt.Errorf("decode quota counter: %w", err)
			}
		}

		next, write := fn(engine.QuotaCounterState{Count: rec.Count, Limit: rec.Limit, PeriodStart: rec.PeriodStart}, exists)
		if !write {
			return nil
		}
		raw, err := json.Marshal(badgerCounter{Count: next.Count, Limit: next.Limit, PeriodStart: next.PeriodStart})
		if err != nil {
			return err
		}
		return txn.Set(k, raw)
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", engine.ErrConflict, err)
	}
	return err
}
