// Package quota enforces the daily doubt-posting allowance. Every user
// gets a base number of posts per UTC calendar day, extendable by a
// bonus earned for each answer they contribute.
package quota

import (
	"context"
	"errors"
	"time"
)

// BaseDailyLimit is the number of doubts a user may post per day before
// any contribution bonus.
const BaseDailyLimit = 5

var ErrQuotaExceeded = errors.New("daily post limit reached")

// Record is one (user, day) row of the daily tracking table.
type Record struct {
	PostedToday int
	BonusLimit  int
}

// Allowance is the derived posting budget for a user on a given day.
type Allowance struct {
	PostedToday int
	MaxAllowed  int
}

// TrackingStore is the storage behind the tracker. Rows are created
// lazily by the increment operations; Get returns a zero Record when no
// row exists yet. TryIncrementPosted must be atomic with respect to
// concurrent posts by the same user on the same day.
type TrackingStore interface {
	Get(ctx context.Context, userID, day string) (Record, error)
	TryIncrementPosted(ctx context.Context, userID, day string, baseLimit int) (bool, error)
	DecrementPosted(ctx context.Context, userID, day string) error
	IncrementBonus(ctx context.Context, userID, day string, amount int) error
}

type Tracker struct {
	store TrackingStore
}

func NewTracker(store TrackingStore) *Tracker {
	return &Tracker{store: store}
}

// Allowance reports how many doubts the user has posted today and the
// maximum allowed for the day. A missing record means zero posts and
// the base limit.
func (t *Tracker) Allowance(ctx context.Context, userID, day string) (Allowance, error) {
	record, err := t.store.Get(ctx, userID, day)
	if err != nil {
		return Allowance{}, err
	}
	return Allowance{
		PostedToday: record.PostedToday,
		MaxAllowed:  BaseDailyLimit + record.BonusLimit,
	}, nil
}

// RecordPost consumes one post slot for the user/day. The underlying
// conditional increment is the serialization point: when two posts race
// for the last slot, exactly one wins and the other gets
// ErrQuotaExceeded.
func (t *Tracker) RecordPost(ctx context.Context, userID, day string) error {
	ok, err := t.store.TryIncrementPosted(ctx, userID, day, BaseDailyLimit)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// RollbackPost releases a slot taken by RecordPost when the doubt
// itself could not be persisted, so a failed post never burns quota.
func (t *Tracker) RollbackPost(ctx context.Context, userID, day string) error {
	return t.store.DecrementPosted(ctx, userID, day)
}

// GrantBonus permanently raises the user's allowance for the day.
// Called once per answer contributed, verified or not.
func (t *Tracker) GrantBonus(ctx context.Context, userID, day string, amount int) error {
	if amount <= 0 {
		amount = 1
	}
	return t.store.IncrementBonus(ctx, userID, day, amount)
}

// Today returns the UTC calendar date used as the day boundary for all
// quota bookkeeping.
func Today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
