package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"lireddit/internal/model"
	"lireddit/internal/repository"
)

const (
	MaxPageSize   = 50
	SnippetLength = 50
)

type PostService struct {
	postRepo *repository.PostRepository
}

type PostInput struct {
	Title string
	Text  string
}

type PostPage struct {
	Posts   []model.Post
	HasMore bool
}

func NewPostService(postRepo *repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) Create(ctx context.Context, userID uint, input PostInput) (*model.Post, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	post := &model.Post{
		Title:     input.Title,
		Text:      input.Text,
		CreatorID: userID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*model.Post, error) {
	if id == 0 {
		return nil, nil
	}
	return s.postRepo.GetByID(ctx, id)
}

// List returns one page of posts, newest first. limit is capped at
// MaxPageSize; cursor is the createdAt of the last post of the previous page.
// One extra row is fetched to tell whether another page exists.
func (s *PostService) List(ctx context.Context, limit int, cursor *string) (*PostPage, error) {
	realLimit := limit
	if realLimit > MaxPageSize {
		realLimit = MaxPageSize
	}
	if realLimit < 0 {
		realLimit = 0
	}

	var before *time.Time
	if cursor != nil && *cursor != "" {
		t, err := ParseCursor(*cursor)
		if err != nil {
			return nil, err
		}
		before = &t
	}

	posts, err := s.postRepo.ListBefore(ctx, before, realLimit+1)
	if err != nil {
		return nil, err
	}

	page := &PostPage{HasMore: len(posts) == realLimit+1}
	if page.HasMore {
		posts = posts[:realLimit]
	}
	page.Posts = posts
	return page, nil
}

// Update is filtered on the author; a non-author gets nil and nothing changes.
func (s *PostService) Update(ctx context.Context, userID, id uint, title, text string) (*model.Post, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	return s.postRepo.UpdateByCreator(ctx, id, userID, title, text)
}

func (s *PostService) Delete(ctx context.Context, userID, id uint) (bool, error) {
	if userID == 0 {
		return false, ErrUnauthenticated
	}
	return s.postRepo.DeleteByCreator(ctx, id, userID)
}

// FormatTimestamp renders t as epoch milliseconds, the form used both for
// createdAt/updatedAt fields and for page cursors.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func ParseCursor(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	return time.UnixMilli(ms).UTC(), nil
}

// Snippet returns the first SnippetLength characters of text.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return text
	}
	return string(runes[:SnippetLength])
}
