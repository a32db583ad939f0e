// Command bootstrap-admin creates or promotes an admin account.
// Run it once against a fresh database to get an operator login:
//
//	go run ./scripts/bootstrap-admin.go -email admin@example.com -password <secret>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

type output struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Promoted bool     `json:"promoted"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Admin account email")
		password    = flag.String("password", "", "Admin account password (required when creating)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "run migrations:", err)
		os.Exit(1)
	}

	out, err := ensureAdmin(ctx, repo, strings.ToLower(strings.TrimSpace(*email)), *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	switch strings.ToLower(*format) {
	case "plain":
		if out.Promoted {
			fmt.Printf("promoted %s (%s) to admin\n", out.Email, out.UserID)
		} else {
			fmt.Printf("created admin %s (%s)\n", out.Email, out.UserID)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureAdmin promotes an existing account or creates a new one with
// the admin role.
func ensureAdmin(ctx context.Context, repo *repository.Repository, email, password string) (*output, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return &output{UserID: existing.ID, Email: existing.Email, Roles: existing.Roles, Promoted: true}, nil
		}
		existing.Roles = append(existing.Roles, model.RoleAdmin)
		existing.IsActive = true
		if err := repo.UpdateUser(ctx, existing); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		return &output{UserID: existing.ID, Email: existing.Email, Roles: existing.Roles, Promoted: true}, nil
	case errors.Is(err, repository.ErrUserNotFound):
		// No account yet; create one below.
	default:
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if password == "" {
		return nil, fmt.Errorf("-password is required to create a new admin")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             ulid.Make().String(),
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		Roles:          []string{model.RoleUser, model.RoleAdmin},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &output{UserID: user.ID, Email: user.Email, Roles: user.Roles}, nil
}
