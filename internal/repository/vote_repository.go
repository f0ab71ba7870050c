package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lireddit/internal/model"
)

type VoteChange int

const (
	VoteUnchanged VoteChange = iota
	VoteCreated
	VoteFlipped
	VotePostMissing
)

var errVotePostMissing = errors.New("vote target post missing")

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Apply records value (+1 or -1) as userID's vote on postID and moves the
// post's points by the matching delta inside one transaction.
//
// The delta follows from the rows the conditional vote writes affected, never
// from an earlier read, so concurrent flips by one account move points once.
// Points are changed with a relative UPDATE.
func (r *VoteRepository) Apply(ctx context.Context, userID, postID uint, value int) (VoteChange, error) {
	change := VoteUnchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Select("id").Take(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errVotePostMissing
			}
			return fmt.Errorf("query vote target failed: %w", err)
		}

		flipped, err := flipVote(tx, userID, postID, value)
		if err != nil {
			return err
		}

		var delta int
		switch {
		case flipped:
			// -1 -> +1 or +1 -> -1 swings the total by two.
			delta = 2 * value
			change = VoteFlipped
		default:
			created, err := insertVote(tx, userID, postID, value)
			if err != nil {
				return err
			}
			if !created {
				return nil
			}
			delta = value
			change = VoteCreated
		}

		res := tx.Model(&model.Post{}).
			Where("id = ?", postID).
			UpdateColumn("points", gorm.Expr("points + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("update post points failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errVotePostMissing
		}
		return nil
	})
	if errors.Is(err, errVotePostMissing) {
		return VotePostMissing, nil
	}
	if err != nil {
		return VoteUnchanged, err
	}
	return change, nil
}

// flipVote sets an existing vote of the opposite sign to value. It reports
// false when there is no vote or it already holds value.
func flipVote(tx *gorm.DB, userID, postID uint, value int) (bool, error) {
	res := tx.Model(&model.Vote{}).
		Where("user_id = ? AND post_id = ? AND value <> ?", userID, postID, value).
		Update("value", value)
	if res.Error != nil {
		return false, fmt.Errorf("update vote failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// insertVote creates the vote unless one already exists for the pair.
func insertVote(tx *gorm.DB, userID, postID uint, value int) (bool, error) {
	vote := model.Vote{UserID: userID, PostID: postID, Value: value}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
	if res.Error != nil {
		return false, fmt.Errorf("create vote failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListByKeys fetches every vote matching one of keys with a single query.
// Keys are grouped per user so the filter stays portable across drivers.
func (r *VoteRepository) ListByKeys(ctx context.Context, keys []model.VoteKey) ([]model.Vote, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	postsByUser := make(map[uint][]uint)
	users := make([]uint, 0, 1)
	for _, key := range keys {
		if _, ok := postsByUser[key.UserID]; !ok {
			users = append(users, key.UserID)
		}
		postsByUser[key.UserID] = append(postsByUser[key.UserID], key.PostID)
	}

	conds := make([]string, 0, len(users))
	args := make([]interface{}, 0, 2*len(users))
	for _, userID := range users {
		conds = append(conds, "(user_id = ? AND post_id IN ?)")
		args = append(args, userID, postsByUser[userID])
	}

	var votes []model.Vote
	if err := r.db.WithContext(ctx).Where(strings.Join(conds, " OR "), args...).Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("list votes by keys failed: %w", err)
	}
	return votes, nil
}
