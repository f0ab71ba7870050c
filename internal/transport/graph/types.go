package graph

import (
	"context"

	"lireddit/internal/app"
	"lireddit/internal/identity"
	"lireddit/internal/loader"
	"lireddit/internal/model"
)

func voteKey(userID, postID uint) model.VoteKey {
	return model.VoteKey{UserID: userID, PostID: postID}
}

type paginatedPostsResolver struct {
	posts   []*postResolver
	hasMore bool
}

func (r *paginatedPostsResolver) Posts() []*postResolver { return r.posts }
func (r *paginatedPostsResolver) HasMore() bool          { return r.hasMore }

// postResolver adds the viewer-dependent and derived fields (creator,
// voteStatus, textSnippet) on top of the stored post.
type postResolver struct {
	post    model.Post
	loaders *loader.Set
}

func (r *postResolver) ID() int32           { return int32(r.post.ID) }
func (r *postResolver) Title() string       { return r.post.Title }
func (r *postResolver) Text() string        { return r.post.Text }
func (r *postResolver) TextSnippet() string { return app.Snippet(r.post.Text) }
func (r *postResolver) Points() int32       { return int32(r.post.Points) }
func (r *postResolver) CreatorID() int32    { return int32(r.post.CreatorID) }
func (r *postResolver) CreatedAt() string   { return app.FormatTimestamp(r.post.CreatedAt) }
func (r *postResolver) UpdatedAt() string   { return app.FormatTimestamp(r.post.UpdatedAt) }

func (r *postResolver) Creator(ctx context.Context) (*userResolver, error) {
	user, err := r.loaders.Users.Load(ctx, r.post.CreatorID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Non-null field; graphql reports the missing author as an error.
		return nil, nil
	}
	return &userResolver{user: *user}, nil
}

func (r *postResolver) VoteStatus(ctx context.Context) (*int32, error) {
	viewerID := identity.FromContext(ctx).UserID()
	if viewerID == 0 {
		return nil, nil
	}
	vote, err := r.loaders.Votes.Load(ctx, voteKey(viewerID, r.post.ID))
	if err != nil || vote == nil {
		return nil, err
	}
	value := int32(vote.Value)
	return &value, nil
}

type userResolver struct {
	user model.User
}

func (r *userResolver) ID() int32         { return int32(r.user.ID) }
func (r *userResolver) Username() string  { return r.user.Username }
func (r *userResolver) Email() string     { return r.user.Email }
func (r *userResolver) CreatedAt() string { return app.FormatTimestamp(r.user.CreatedAt) }
func (r *userResolver) UpdatedAt() string { return app.FormatTimestamp(r.user.UpdatedAt) }

type fieldErrorResolver struct {
	err app.FieldError
}

func (r *fieldErrorResolver) Field() string   { return r.err.Field }
func (r *fieldErrorResolver) Message() string { return r.err.Message }

type userResponseResolver struct {
	resp *app.UserResponse
}

func (r *userResponseResolver) Errors() *[]*fieldErrorResolver {
	if len(r.resp.Errors) == 0 {
		return nil
	}
	out := make([]*fieldErrorResolver, 0, len(r.resp.Errors))
	for _, fe := range r.resp.Errors {
		out = append(out, &fieldErrorResolver{err: fe})
	}
	return &out
}

func (r *userResponseResolver) User() *userResolver {
	if r.resp.User == nil {
		return nil
	}
	return &userResolver{user: *r.resp.User}
}
