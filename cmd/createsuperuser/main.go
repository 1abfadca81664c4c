// Command createsuperuser creates an administrator profile and optionally
// issues a token for it.
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

	"github.com/joho/godotenv"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/repository"
	"github.com/profilesapi/profiles/internal/service"
)

type output struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Token     string `json:"token,omitempty"`
}

func main() {
	_ = godotenv.Load()

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Superuser email (required)")
		name        = flag.String("name", "", "Superuser display name (required)")
		password    = flag.String("password", os.Getenv("SUPERUSER_PASSWORD"), "Superuser password (defaults to $SUPERUSER_PASSWORD)")
		issueToken  = flag.Bool("token", false, "Log in and print an admin token")
		tokenEnv    = flag.String("token-env", envOr("TOKEN_ENV", auth.EnvLive), "Token environment marker: live or test")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}
	if *email == "" || *name == "" || *password == "" {
		fail("--email, --name and a password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL, repository.DefaultPoolConfig)
	if err != nil {
		fail("connect database:", err)
	}
	defer repo.Close()

	hasher := auth.NewHasher(auth.DefaultParams)
	profiles := service.NewProfileService(repo, nil, hasher, nil)

	user, err := profiles.CreateSuperuser(ctx, service.CreateProfileInput{
		Email:    *email,
		Name:     *name,
		Password: *password,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
			os.Exit(1)
		}
		fail("create superuser:", err)
	}

	out := output{ProfileID: user.ID, Email: user.Email, Name: user.Name}

	if *issueToken {
		authSvc := service.NewAuthService(repo, repo, nil, hasher, *tokenEnv, nil)
		result, err := authSvc.Login(ctx, user.Email, *password)
		if err != nil {
			fail("issue token:", err)
		}
		out.Token = result.Token
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.ProfileID)
		if out.Token != "" {
			fmt.Println(out.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain or json")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
