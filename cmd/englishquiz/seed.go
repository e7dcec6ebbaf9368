package main

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/store"
)

//go:embed questions/default.json
var defaultQuestions []byte

const defaultQuestionsName = "embedded:default.json"

var errNoAdminCredentials = errors.New("admin email and password are required: set --admin-email/--admin-password or QUIZ_ADMIN_EMAIL/QUIZ_ADMIN_PASSWORD")

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import questions and create the admin account",
		Long: "Imports questions from the given JSON files, or the built-in set of ten\n" +
			"English questions when none are given, and creates the admin account if\n" +
			"there is none yet. Files already imported with the same content are skipped.",
		RunE: runSeed,
	}
	f := cmd.Flags()
	f.String("db", "englishquiz.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Questions JSON files (default: built-in set)")
	f.String("admin-email", "admin@example.com", "Admin email")
	f.String("admin-password", "", "Admin password (or set QUIZ_ADMIN_PASSWORD)")
	addLogFlags(f, "info")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sources := []questionSource{{name: defaultQuestionsName, data: defaultQuestions}}
	if paths := v.GetStringSlice("questions"); len(paths) > 0 {
		if sources, err = fileSources(paths); err != nil {
			return err
		}
	}
	if err := loadQuestions(ctx, db, sources); err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	if err := seedAdmin(ctx, db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

type questionSource struct {
	name string
	data []byte
}

func fileSources(paths []string) ([]questionSource, error) {
	sources := make([]questionSource, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		sources = append(sources, questionSource{name: path, data: data})
	}
	return sources, nil
}

// loadQuestions imports each source once. A source whose content changed
// since its import is skipped: stored answers are matched to questions by
// position, so rewriting the set would re-score history.
func loadQuestions(ctx context.Context, db *store.Store, sources []questionSource) error {
	for _, src := range sources {
		hash := sha256sum(src.data)
		storedHash, err := db.GetImportedFileHash(ctx, src.name)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", src.name, err)
		}

		if storedHash == hash {
			slog.Info("questions file unchanged, skipping", "path", src.name)
			continue
		}
		if storedHash != "" {
			slog.Warn("questions file changed since last import, skipping to keep stored answers aligned",
				"path", src.name)
			continue
		}

		var questions []model.QuestionImport
		if err := json.Unmarshal(src.data, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", src.name, err)
		}
		for i, qi := range questions {
			if err := model.Validate(qi); err != nil {
				return fmt.Errorf("%s: question %d: %w", src.name, i+1, err)
			}
		}

		batch := make([]model.Question, len(questions))
		for i, qi := range questions {
			batch[i] = qi.Question()
		}
		if err := db.InsertQuestions(ctx, batch, src.name, hash); err != nil {
			return fmt.Errorf("import %s: %w", src.name, err)
		}
		slog.Info("imported questions", "path", src.name, "count", len(questions))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// seedAdmin creates the admin account when none exists yet.
func seedAdmin(ctx context.Context, db *store.Store, email, password string) error {
	count, err := db.AdminCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if email == "" || password == "" {
		return errNoAdminCredentials
	}
	if err := model.Validate(model.LoginRequest{Email: store.NormalizeEmail(email), Password: password}); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := db.CreateAdmin(ctx, model.Admin{Email: email, PasswordHash: string(hash)}); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	slog.Info("seeded admin account", "email", store.NormalizeEmail(email))
	return nil
}
