package app

import (
	"context"

	"lireddit/internal/repository"
)

type VoteService struct {
	voteRepo *repository.VoteRepository
}

func NewVoteService(voteRepo *repository.VoteRepository) *VoteService {
	return &VoteService{voteRepo: voteRepo}
}

// NormalizeVote maps a requested value onto +1 or -1. Only -1 is a
// downvote; every other input, including 0 and large numbers, counts as +1.
func NormalizeVote(raw int) int {
	if raw == -1 {
		return -1
	}
	return 1
}

// Vote applies userID's vote on postID. Repeating the current vote is a
// successful no-op; voting on a post that does not exist reports false.
func (s *VoteService) Vote(ctx context.Context, userID, postID uint, raw int) (bool, error) {
	if userID == 0 {
		return false, ErrUnauthenticated
	}
	change, err := s.voteRepo.Apply(ctx, userID, postID, NormalizeVote(raw))
	if err != nil {
		return false, err
	}
	return change != repository.VotePostMissing, nil
}
