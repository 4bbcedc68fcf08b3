package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/psp-portal/portal-api/internal/auth"
	"github.com/psp-portal/portal-api/internal/config"
	"github.com/psp-portal/portal-api/internal/database"
	"github.com/psp-portal/portal-api/internal/handler"
	"github.com/psp-portal/portal-api/internal/queue"
	"github.com/psp-portal/portal-api/internal/repository"
	"github.com/psp-portal/portal-api/internal/router"
	"github.com/psp-portal/portal-api/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	principals := repository.NewPrincipalRepo(db)
	resets := repository.NewResetTokenRepo(db)

	// Prefer the shared Redis revocation store so a token revoked on one
	// instance is rejected everywhere; fall back to the process-local store
	// when Redis is unreachable.
	var revoked token.RevocationStore
	if rdb := config.NewRedisClient(); rdb != nil {
		revoked = token.NewRedisRevocationStore(rdb)
	} else {
		log.Printf("redis unavailable, falling back to in-process revocation store")
		revoked = token.NewMemoryRevocationStore()
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.Issuer,
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry, principals, revoked)

	sessions := auth.NewSessionResolver(principals)
	cookies := auth.NewCookieCodec(cfg.SessionSecret, cfg.SessionMaxAge, cfg.IsProd())

	public := &handler.LoginPath{
		Provider: auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BackendHost, "/auth/google/callback"),
		Resolver: auth.NewResolver(principals, auth.ProviderGoogle, auth.PublicPolicy),
	}
	admin := &handler.LoginPath{
		Provider: auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BackendHost, "/admin/google/callback"),
		Resolver: auth.NewResolver(principals, auth.ProviderGoogle, auth.AdminGatedPolicy),
	}

	authHandler := handler.NewAuthHandler(cfg, principals, tokens, cookies, sessions, public, admin)
	resetHandler := handler.NewResetHandler(principals, resets, cfg.PasswordResetTTL, cfg.BcryptCost)

	// Audit log consumer; runs its own reconnect loop for the process lifetime.
	go func() {
		if err := queue.StartAuthEventConsumer(); err != nil {
			log.Printf("auth event consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, resetHandler, tokens, cookies, sessions)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
