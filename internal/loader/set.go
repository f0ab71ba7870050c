package loader

import (
	"context"

	"lireddit/internal/model"
)

type UserSource interface {
	ListByIDs(ctx context.Context, ids []uint) ([]model.User, error)
}

type VoteSource interface {
	ListByKeys(ctx context.Context, keys []model.VoteKey) ([]model.Vote, error)
}

// Set holds the loaders of one request.
type Set struct {
	Users *Loader[uint, *model.User]
	Votes *Loader[model.VoteKey, *model.Vote]
}

func NewSet(users UserSource, votes VoteSource) *Set {
	return &Set{
		Users: New(func(ctx context.Context, ids []uint) (map[uint]*model.User, error) {
			rows, err := users.ListByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			out := make(map[uint]*model.User, len(rows))
			for i := range rows {
				out[rows[i].ID] = &rows[i]
			}
			return out, nil
		}),
		Votes: New(func(ctx context.Context, keys []model.VoteKey) (map[model.VoteKey]*model.Vote, error) {
			rows, err := votes.ListByKeys(ctx, keys)
			if err != nil {
				return nil, err
			}
			out := make(map[model.VoteKey]*model.Vote, len(rows))
			for i := range rows {
				out[rows[i].Key()] = &rows[i]
			}
			return out, nil
		}),
	}
}

type contextKey struct{}

func NewContext(ctx context.Context, set *Set) context.Context {
	return context.WithValue(ctx, contextKey{}, set)
}

// FromContext returns the request's loaders, or nil when none were attached.
func FromContext(ctx context.Context) *Set {
	set, _ := ctx.Value(contextKey{}).(*Set)
	return set
}
