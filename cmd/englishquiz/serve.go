package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pavelanni/englishquiz/internal/auth"
	"github.com/pavelanni/englishquiz/internal/cache"
	"github.com/pavelanni/englishquiz/internal/handler"
	appI18n "github.com/pavelanni/englishquiz/internal/i18n"
	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "englishquiz.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Questions JSON files to import at startup (repeatable)")
	f.StringP("lang", "l", "en", "UI language (en, id)")
	f.Bool("secure-cookies", true, "Set Secure flag on the admin cookie")
	f.String("jwt-secret", "", "Secret for signing admin tokens (or set QUIZ_JWT_SECRET)")
	f.Duration("token-ttl", auth.DefaultTTL, "Lifetime of an admin login")
	f.String("admin-email", "", "Email of the admin created when none exists")
	f.String("admin-password", "", "Password of the admin created when none exists (or set QUIZ_ADMIN_PASSWORD)")
	f.String("redis-addr", "", "Redis address for the question cache (empty disables caching)")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.Duration("cache-ttl", 5*time.Minute, "How long the question set stays cached")
	addLogFlags(f, "info")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	secret := v.GetString("jwt-secret")
	if secret == "" {
		return errors.New("jwt secret is required: set --jwt-secret flag or QUIZ_JWT_SECRET env var")
	}
	tokens, err := auth.NewIssuer(secret, v.GetDuration("token-ttl"))
	if err != nil {
		return fmt.Errorf("create token issuer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(ctx, db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		if !errors.Is(err, errNoAdminCredentials) {
			return fmt.Errorf("seed admin: %w", err)
		}
		slog.Warn("no admin account exists and no credentials were given; the dashboard is unreachable until `englishquiz seed` is run")
	}

	sources, err := fileSources(v.GetStringSlice("questions"))
	if err != nil {
		return err
	}
	if err := loadQuestions(ctx, db, sources); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	h, err := handler.New(db, tokens, model.ServerConfig{
		SecureCookies: v.GetBool("secure-cookies"),
		TokenTTL:      tokens.TTL(),
		Lang:          lang,
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	if addr := v.GetString("redis-addr"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: v.GetString("redis-password"),
			DB:       v.GetInt("redis-db"),
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis not reachable, questions will be read from the database until it is", "addr", addr, "error", err)
		}
		h.UseQuestionCache(cache.NewQuestions(rdb, db, v.GetDuration("cache-ttl")))
		slog.Info("question cache enabled", "addr", addr, "ttl", v.GetDuration("cache-ttl"))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server",
		"addr", srv.Addr,
		"db", v.GetString("db"),
		"lang", lang,
		"token_ttl", tokens.TTL(),
		"secure_cookies", v.GetBool("secure-cookies"),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
