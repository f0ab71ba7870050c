package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lireddit/internal/model"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post failed: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query post by id failed: %w", err)
	}
	return &post, nil
}

// ListBefore returns up to limit posts newest first. When before is set only
// posts created strictly earlier are returned.
func (r *PostRepository) ListBefore(ctx context.Context, before *time.Time, limit int) ([]model.Post, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if before != nil {
		query = query.Where("created_at < ?", before.UTC())
	}

	var posts []model.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts failed: %w", err)
	}
	return posts, nil
}

// UpdateByCreator changes title and text of a post owned by creatorID. It
// returns nil when no such post exists for that creator.
func (r *PostRepository) UpdateByCreator(ctx context.Context, id, creatorID uint, title, text string) (*model.Post, error) {
	var updated *model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).
			Where("id = ? AND creator_id = ?", id, creatorID).
			Updates(map[string]interface{}{"title": title, "text": text})
		if res.Error != nil {
			return fmt.Errorf("update post failed: %w", res.Error)
		}

		var post model.Post
		if err := tx.Where("id = ? AND creator_id = ?", id, creatorID).Take(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("reload post failed: %w", err)
		}
		updated = &post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByCreator removes a post owned by creatorID together with its votes.
// It reports false when the post does not exist or belongs to someone else.
func (r *PostRepository) DeleteByCreator(ctx context.Context, id, creatorID uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Select("id").Where("id = ? AND creator_id = ?", id, creatorID).Take(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("query post for delete failed: %w", err)
		}

		if err := tx.Where("post_id = ?", id).Delete(&model.Vote{}).Error; err != nil {
			return fmt.Errorf("delete post votes failed: %w", err)
		}
		if err := tx.Where("id = ? AND creator_id = ?", id, creatorID).Delete(&model.Post{}).Error; err != nil {
			return fmt.Errorf("delete post failed: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
