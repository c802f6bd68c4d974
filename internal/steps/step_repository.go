package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/store"
)

// StepRepository is the step ledger keyed by (user, date).
type StepRepository interface {
	// MaxMerge stores max(current, steps) and returns the stored value.
	MaxMerge(ctx context.Context, uid, date string, steps int, provider string, now time.Time) (int, error)
	// Overwrite replaces the stored value unconditionally.
	Overwrite(ctx context.Context, uid, date string, steps int, provider string, now time.Time) error
	GetRecord(ctx context.Context, uid, date string) (*Record, error)
	// ListRecords returns records matching f, restricted to uid when set,
	// ordered by date then user.
	ListRecords(ctx context.Context, f DateFilter, uid string) ([]Record, error)
}

// IdempotencyRepository holds one-time markers per (key, user).
type IdempotencyRepository interface {
	// CheckAndMark records the key and reports whether it had been used.
	CheckAndMark(ctx context.Context, key, uid, date string, now time.Time) (bool, error)
	Release(ctx context.Context, key, uid string) error
}

type stepRepository struct {
	store store.Store
}

func NewStepRepository(s store.Store) StepRepository {
	return &stepRepository{store: s}
}

func (r *stepRepository) MaxMerge(ctx context.Context, uid, date string, steps int, provider string, now time.Time) (int, error) {
	stored := steps
	err := r.store.Update(ctx, store.DailySteps, recordKey(uid, date), func(current []byte, exists bool) (interface{}, error) {
		if exists {
			var prev Record
			if err := json.Unmarshal(current, &prev); err != nil {
				return nil, fmt.Errorf("decode step record: %w", err)
			}
			if prev.Steps >= steps {
				stored = prev.Steps
				return nil, store.ErrSkipWrite
			}
		}
		stored = steps
		return Record{UserID: uid, Date: date, Steps: steps, Provider: provider, UpdatedAt: now.UTC()}, nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

func (r *stepRepository) Overwrite(ctx context.Context, uid, date string, steps int, provider string, now time.Time) error {
	return r.store.Set(ctx, store.DailySteps, recordKey(uid, date), Record{
		UserID: uid, Date: date, Steps: steps, Provider: provider, UpdatedAt: now.UTC(),
	})
}

func (r *stepRepository) GetRecord(ctx context.Context, uid, date string) (*Record, error) {
	var rec Record
	ok, err := r.store.Get(ctx, store.DailySteps, recordKey(uid, date), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *stepRepository) ListRecords(ctx context.Context, f DateFilter, uid string) ([]Record, error) {
	filters := f.storeFilters()
	if uid != "" {
		filters = append(filters, store.Eq("user_id", uid))
	}
	docs, err := r.store.Query(ctx, store.DailySteps, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		var rec Record
		if err := d.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

type idempotencyRepository struct {
	store store.Store
}

func NewIdempotencyRepository(s store.Store) IdempotencyRepository {
	return &idempotencyRepository{store: s}
}

// CheckAndMark claims {key}_{uid}. Since that layout is ambiguous when keys
// or ids contain underscores, a slot held by a different (key, uid) pair sends
// the claim to a length-prefixed slot instead.
func (r *idempotencyRepository) CheckAndMark(ctx context.Context, key, uid, date string, now time.Time) (bool, error) {
	m := Marker{Key: key, UserID: uid, Date: date, CreatedAt: now.UTC()}

	held, err := r.holds(ctx, markerFallbackKey(key, uid), key, uid)
	if err != nil || held {
		return held, err
	}

	created, err := r.store.Create(ctx, store.IdempotencyKeys, markerKey(key, uid), m)
	if err != nil {
		return false, err
	}
	if created {
		return false, nil
	}
	held, err = r.holds(ctx, markerKey(key, uid), key, uid)
	if err != nil || held {
		return held, err
	}

	created, err = r.store.Create(ctx, store.IdempotencyKeys, markerFallbackKey(key, uid), m)
	if err != nil {
		return false, err
	}
	return !created, nil
}

// Release frees a key whose submission did not reach the ledger.
func (r *idempotencyRepository) Release(ctx context.Context, key, uid string) error {
	held, err := r.holds(ctx, markerKey(key, uid), key, uid)
	if err != nil {
		return err
	}
	if held {
		return r.store.Delete(ctx, store.IdempotencyKeys, markerKey(key, uid))
	}
	return r.store.Delete(ctx, store.IdempotencyKeys, markerFallbackKey(key, uid))
}

// holds reports whether the marker stored at slot belongs to (key, uid).
func (r *idempotencyRepository) holds(ctx context.Context, slot, key, uid string) (bool, error) {
	var m Marker
	ok, err := r.store.Get(ctx, store.IdempotencyKeys, slot, &m)
	if err != nil || !ok {
		return false, err
	}
	return m.Key == key && m.UserID == uid, nil
}
