package repository

import (
	"context"
	"testing"
	"time"

	"lireddit/internal/model"
	"lireddit/internal/testutil"
)

func TestPostListBefore(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "alice")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p1 := testutil.CreatePost(t, db, author.ID, "one", base)
	p2 := testutil.CreatePost(t, db, author.ID, "two", base.Add(time.Minute))
	p3 := testutil.CreatePost(t, db, author.ID, "three", base.Add(2*time.Minute))

	tests := []struct {
		name   string
		before *time.Time
		limit  int
		want   []uint
	}{
		{"first page", nil, 2, []uint{p3.ID, p2.ID}},
		{"all", nil, 10, []uint{p3.ID, p2.ID, p1.ID}},
		{"strictly before cursor", &p2.CreatedAt, 10, []uint{p1.ID}},
		{"before oldest", &p1.CreatedAt, 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repo.ListBefore(ctx, tt.before, tt.limit)
			if err != nil {
				t.Fatalf("ListBefore() error = %v", err)
			}
			if len(posts) != len(tt.want) {
				t.Fatalf("ListBefore() returned %d posts, want %d", len(posts), len(tt.want))
			}
			for i, post := range posts {
				if post.ID != tt.want[i] {
					t.Errorf("posts[%d].ID = %d, want %d", i, post.ID, tt.want[i])
				}
			}
		})
	}
}

func TestPostUpdateByCreator(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, "draft", time.Now())

	got, err := repo.UpdateByCreator(ctx, post.ID, bob.ID, "hijacked", "nope")
	if err != nil {
		t.Fatalf("UpdateByCreator() error = %v", err)
	}
	if got != nil {
		t.Fatal("non-author update should return nil")
	}

	got, err = repo.UpdateByCreator(ctx, post.ID, alice.ID, "final", "done")
	if err != nil {
		t.Fatalf("UpdateByCreator() error = %v", err)
	}
	if got == nil || got.Title != "final" || got.Text != "done" {
		t.Fatalf("UpdateByCreator() = %+v, want updated post", got)
	}

	stored, err := repo.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Title != "final" {
		t.Errorf("stored title = %q, want final", stored.Title)
	}
}

func TestPostDeleteByCreator(t *testing.T) {
	db := testutil.NewTestDB(t)
	posts := NewPostRepository(db)
	votes := NewVoteRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, "mine", time.Now())
	if _, err := votes.Apply(ctx, bob.ID, post.ID, 1); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	deleted, err := posts.DeleteByCreator(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("DeleteByCreator() error = %v", err)
	}
	if deleted {
		t.Fatal("non-author delete should report false")
	}
	if stored, _ := posts.GetByID(ctx, post.ID); stored == nil {
		t.Fatal("post removed by non-author")
	}

	deleted, err = posts.DeleteByCreator(ctx, post.ID, alice.ID)
	if err != nil {
		t.Fatalf("DeleteByCreator() error = %v", err)
	}
	if !deleted {
		t.Fatal("author delete should report true")
	}
	if stored, _ := posts.GetByID(ctx, post.ID); stored != nil {
		t.Fatal("post still present after delete")
	}

	var remaining int64
	if err := db.Model(&model.Vote{}).Where("post_id = ?", post.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if remaining != 0 {
		t.Errorf("%d votes left after delete, want 0", remaining)
	}
}
