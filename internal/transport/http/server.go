package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "lireddit/internal/app"
	"lireddit/internal/bootstrap"
	"lireddit/internal/cache"
	"lireddit/internal/repository"
	"lireddit/internal/transport/graph"
	"lireddit/internal/transport/http/handler"
	"lireddit/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.App.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	postRepo := repository.NewPostRepository(app.DB)
	voteRepo := repository.NewVoteRepository(app.DB)
	sessions := cache.NewSessionStore(app.Redis, cfg.SessionMaxAge())
	resetTokens := cache.NewResetTokenStore(app.Redis, cfg.ResetTokenTTL())

	authService := appsvc.NewAuthService(userRepo, resetTokens, app.Mailer, cfg.App.FrontendURL)
	postService := appsvc.NewPostService(postRepo)
	voteService := appsvc.NewVoteService(voteRepo)
	resolver := graph.NewResolver(authService, postService, voteService, userRepo, voteRepo)

	session := middleware.Session(sessions, middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		Secret:     cfg.Session.Secret,
		MaxAge:     int(cfg.SessionMaxAge().Seconds()),
		Secure:     cfg.IsProduction(),
	})
	router.POST("/graphql", session, gin.WrapH(graph.NewHandler(resolver)))

	return router
}
