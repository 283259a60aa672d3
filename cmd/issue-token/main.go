// Command issue-token signs a staff access token with JWT_SECRET, for bootstrapping
// terminals and local testing when no identity provider is configured.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/config"
	"cafe-pos/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithWriter(os.Stderr, cfg.Log.Level)

	if err := issue(os.Args[1:], cfg.Auth.JWTSecret, os.Stdout); err != nil {
		log.Fatal("AUTH", err.Error())
	}
}

func issue(args []string, secret string, out io.Writer) error {
	set := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	id := set.String("id", "", "user id placed in the subject claim")
	name := set.String("name", "", "display name")
	role := set.String("role", string(auth.RoleCashier), "admin, cashier or teacher")
	ttl := set.Duration("ttl", 12*time.Hour, "token lifetime")
	if err := set.Parse(args); err != nil {
		return err
	}

	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}
	switch r := auth.Role(*role); r {
	case auth.RoleAdmin, auth.RoleCashier, auth.RoleTeacher:
	default:
		return fmt.Errorf("unknown role %q", r)
	}

	token, err := auth.IssueToken(secret, auth.User{ID: *id, Name: *name, Role: auth.Role(*role)}, *ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
