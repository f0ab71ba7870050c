// Package graph exposes the forum over GraphQL.
package graph

import (
	"context"
	_ "embed"
	"log"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"lireddit/internal/app"
	"lireddit/internal/identity"
	"lireddit/internal/loader"
)

//go:embed schema.graphql
var schemaSDL string

// Resolver is the root of the Query and Mutation types.
type Resolver struct {
	auth  *app.AuthService
	posts *app.PostService
	votes *app.VoteService

	userSource loader.UserSource
	voteSource loader.VoteSource
}

func NewResolver(
	auth *app.AuthService,
	posts *app.PostService,
	votes *app.VoteService,
	userSource loader.UserSource,
	voteSource loader.VoteSource,
) *Resolver {
	return &Resolver{
		auth:       auth,
		posts:      posts,
		votes:      votes,
		userSource: userSource,
		voteSource: voteSource,
	}
}

func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(schemaSDL, r)
}

// Handler serves GraphQL over HTTP. Every request gets its own loaders so
// cached rows, which include per-viewer vote state, never cross requests.
type Handler struct {
	resolver *Resolver
	relay    *relay.Handler
}

func NewHandler(r *Resolver) *Handler {
	return &Handler{
		resolver: r,
		relay:    &relay.Handler{Schema: NewSchema(r)},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := loader.NewContext(req.Context(), h.resolver.NewLoaders())
	h.relay.ServeHTTP(w, req.WithContext(ctx))
}

func (r *Resolver) NewLoaders() *loader.Set {
	return loader.NewSet(r.userSource, r.voteSource)
}

func (r *Resolver) loaders(ctx context.Context) *loader.Set {
	if set := loader.FromContext(ctx); set != nil {
		return set
	}
	return r.NewLoaders()
}

func requireAuth(ctx context.Context) (uint, error) {
	userID := identity.FromContext(ctx).UserID()
	if userID == 0 {
		return 0, app.ErrUnauthenticated
	}
	return userID, nil
}

// Query

type postsArgs struct {
	Limit  int32
	Cursor *string
}

func (r *Resolver) Posts(ctx context.Context, args postsArgs) (*paginatedPostsResolver, error) {
	page, err := r.posts.List(ctx, int(args.Limit), args.Cursor)
	if err != nil {
		return nil, err
	}

	// Queue every creator and viewer vote of the page; the first field that
	// needs one of them fetches the whole set in a single query.
	set := r.loaders(ctx)
	viewerID := identity.FromContext(ctx).UserID()
	for _, p := range page.Posts {
		set.Users.Prime(p.CreatorID)
		if viewerID != 0 {
			set.Votes.Prime(voteKey(viewerID, p.ID))
		}
	}

	out := make([]*postResolver, 0, len(page.Posts))
	for i := range page.Posts {
		out = append(out, &postResolver{post: page.Posts[i], loaders: set})
	}
	return &paginatedPostsResolver{posts: out, hasMore: page.HasMore}, nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID int32 }) (*postResolver, error) {
	if args.ID <= 0 {
		return nil, nil
	}
	post, err := r.posts.Get(ctx, uint(args.ID))
	if err != nil || post == nil {
		return nil, err
	}
	return &postResolver{post: *post, loaders: r.loaders(ctx)}, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	userID := identity.FromContext(ctx).UserID()
	if userID == 0 {
		return nil, nil
	}
	user, err := r.auth.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}
	return &userResolver{user: *user}, nil
}

// Mutation

type postInput struct {
	Title string
	Text  string
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ Input postInput }) (*postResolver, error) {
	userID, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	post, err := r.posts.Create(ctx, userID, app.PostInput{Title: args.Input.Title, Text: args.Input.Text})
	if err != nil {
		return nil, err
	}
	return &postResolver{post: *post, loaders: r.loaders(ctx)}, nil
}

type updatePostArgs struct {
	ID    int32
	Title string
	Text  string
}

func (r *Resolver) UpdatePost(ctx context.Context, args updatePostArgs) (*postResolver, error) {
	userID, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if args.ID <= 0 {
		return nil, nil
	}
	post, err := r.posts.Update(ctx, userID, uint(args.ID), args.Title, args.Text)
	if err != nil || post == nil {
		return nil, err
	}
	return &postResolver{post: *post, loaders: r.loaders(ctx)}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID int32 }) (bool, error) {
	userID, err := requireAuth(ctx)
	if err != nil {
		return false, err
	}
	if args.ID <= 0 {
		return false, nil
	}
	return r.posts.Delete(ctx, userID, uint(args.ID))
}

type voteArgs struct {
	PostID int32
	Value  int32
}

func (r *Resolver) Vote(ctx context.Context, args voteArgs) (bool, error) {
	userID, err := requireAuth(ctx)
	if err != nil {
		return false, err
	}
	if args.PostID <= 0 {
		return false, nil
	}
	return r.votes.Vote(ctx, userID, uint(args.PostID), int(args.Value))
}

type usernamePasswordInput struct {
	Username string
	Email    string
	Password string
}

func (r *Resolver) Register(ctx context.Context, args struct{ Options usernamePasswordInput }) (*userResponseResolver, error) {
	resp, err := r.auth.Register(ctx, app.RegisterInput{
		Username: args.Options.Username,
		Email:    args.Options.Email,
		Password: args.Options.Password,
	})
	if err != nil {
		return nil, err
	}
	return r.establish(ctx, resp)
}

type loginArgs struct {
	UsernameOrEmail string
	Password        string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*userResponseResolver, error) {
	resp, err := r.auth.Login(ctx, app.LoginInput{
		UsernameOrEmail: args.UsernameOrEmail,
		Password:        args.Password,
	})
	if err != nil {
		return nil, err
	}
	return r.establish(ctx, resp)
}

func (r *Resolver) Logout(ctx context.Context) bool {
	if err := identity.FromContext(ctx).Destroy(ctx); err != nil {
		log.Printf("logout: destroy session failed: %v", err)
		return false
	}
	return true
}

func (r *Resolver) ForgotPassword(ctx context.Context, args struct{ Email string }) (bool, error) {
	if err := r.auth.ForgotPassword(ctx, args.Email); err != nil {
		return false, err
	}
	return true, nil
}

type changePasswordArgs struct {
	Token       string
	NewPassword string
}

func (r *Resolver) ChangePassword(ctx context.Context, args changePasswordArgs) (*userResponseResolver, error) {
	resp, err := r.auth.ChangePassword(ctx, args.Token, args.NewPassword)
	if err != nil {
		return nil, err
	}
	return r.establish(ctx, resp)
}

// establish logs the viewer in when resp carries a user. Field-error
// responses leave the session untouched.
func (r *Resolver) establish(ctx context.Context, resp *app.UserResponse) (*userResponseResolver, error) {
	if resp.User != nil {
		if err := identity.FromContext(ctx).Establish(ctx, resp.User.ID); err != nil {
			return nil, err
		}
	}
	return &userResponseResolver{resp: resp}, nil
}
