// gentoken prints a signed access token for local testing against the
// diary backend.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alexandernizov/moodiary/internal/domain"
	"github.com/alexandernizov/moodiary/internal/pkg/jwt"
	"github.com/google/uuid"
)

const secretEnv = "JWT_SECRET"

var ErrNoSecret = errors.New("signing secret is required: use -secret or " + secretEnv)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		login  string
		sub    string
		secret string
		ttl    time.Duration
	)

	fs := flag.NewFlagSet("gentoken", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&login, "login", "dev", "login claim")
	fs.StringVar(&sub, "sub", "", "user uuid (random when empty)")
	fs.StringVar(&secret, "secret", os.Getenv(secretEnv), "HS256 signing secret")
	fs.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if secret == "" {
		return ErrNoSecret
	}

	user := domain.User{Uuid: uuid.New(), Login: login}
	if sub != "" {
		id, err := uuid.Parse(sub)
		if err != nil {
			return fmt.Errorf("invalid -sub: %w", err)
		}
		user.Uuid = id
	}

	token, err := jwt.NewToken(user, ttl, []byte(secret))
	if err != nil {
		return fmt.Errorf("can't sign token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
