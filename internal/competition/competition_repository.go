package competition

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/DhavalSuthar-24/stepsquad/internal/store"
)

// CompetitionRepository defines the interface for competition data operations
type CompetitionRepository interface {
	// CreateCompetition inserts c and reports false if the id is taken.
	CreateCompetition(ctx context.Context, c *Competition) (bool, error)
	GetCompetitionByID(ctx context.Context, id string) (*Competition, error)
	// GetAllCompetitions lists every competition ordered by start date.
	GetAllCompetitions(ctx context.Context) ([]Competition, error)
	// ModifyCompetition applies fn to the stored competition atomically and
	// returns the result, or nil when the id is unknown. An error from fn
	// aborts the write and is returned as is.
	ModifyCompetition(ctx context.Context, id string, fn func(c *Competition) error) (*Competition, error)
	// AdvanceStatus moves the stored status from one value to another. The
	// write is skipped when the stored status is no longer from or is ENDED
	// or ARCHIVED. It returns the status stored afterwards.
	AdvanceStatus(ctx context.Context, id string, from, to Status) (Status, error)
}

type competitionRepository struct {
	store store.Store
}

// NewCompetitionRepository creates a new instance of CompetitionRepository
func NewCompetitionRepository(s store.Store) CompetitionRepository {
	return &competitionRepository{store: s}
}

func (r *competitionRepository) CreateCompetition(ctx context.Context, c *Competition) (bool, error) {
	return r.store.Create(ctx, store.Competitions, c.CompID, c)
}

func (r *competitionRepository) GetCompetitionByID(ctx context.Context, id string) (*Competition, error) {
	var c Competition
	ok, err := r.store.Get(ctx, store.Competitions, id, &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *competitionRepository) GetAllCompetitions(ctx context.Context) ([]Competition, error) {
	docs, err := r.store.Query(ctx, store.Competitions)
	if err != nil {
		return nil, err
	}
	out := make([]Competition, 0, len(docs))
	for _, d := range docs {
		var c Competition
		if err := d.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].CompID < out[j].CompID
	})
	return out, nil
}

func (r *competitionRepository) ModifyCompetition(ctx context.Context, id string, fn func(c *Competition) error) (*Competition, error) {
	var out *Competition
	err := r.store.Update(ctx, store.Competitions, id, func(current []byte, exists bool) (interface{}, error) {
		out = nil
		if !exists {
			return nil, store.ErrSkipWrite
		}
		var c Competition
		if err := json.Unmarshal(current, &c); err != nil {
			return nil, err
		}
		if err := fn(&c); err != nil {
			return nil, err
		}
		out = &c
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *competitionRepository) AdvanceStatus(ctx context.Context, id string, from, to Status) (Status, error) {
	result := to
	err := r.store.Update(ctx, store.Competitions, id, func(current []byte, exists bool) (interface{}, error) {
		if !exists {
			return nil, errCompetitionGone
		}
		var c Competition
		if err := json.Unmarshal(current, &c); err != nil {
			return nil, err
		}
		if c.Status != from || c.Status == StatusEnded || c.Status == StatusArchived {
			result = c.Status
			return nil, store.ErrSkipWrite
		}
		result = to
		c.Status = to
		return &c, nil
	})
	if errors.Is(err, errCompetitionGone) {
		return from, nil
	}
	if err != nil {
		return from, err
	}
	return result, nil
}

var errCompetitionGone = errors.New("competition removed")
