// Command devtoken mints a bearer token signed with AUTH_JWT_SECRET for local
// use against the API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var actor domain.Actor
	var ttl int
	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.StringVar(&actor.ID, "id", "", "member id (token subject, required)")
	flagSet.StringVar(&actor.Email, "email", "", "member email (required)")
	flagSet.StringVar(&actor.Name, "name", "", "display name")
	flagSet.StringVar(&actor.OrganizationID, "org", "", "organization id")
	flagSet.IntVar(&ttl, "ttl", 0, "lifetime in minutes (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = cfg.Auth.AccessTokenTTLMinutes
	}
	token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(actor)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
