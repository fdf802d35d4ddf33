// Package main mints signed access tokens for local development.  Identity
// is issued by the campus identity service in production; this tool signs
// tokens with JWT_SECRET so the API can be exercised without it.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/utils"
)

func main() {
	var userID uint64
	var role string
	var name string
	var ttlMin int
	var secret string

	_ = godotenv.Load()

	flag.Uint64Var(&userID, "id", 1, "user id placed in the sub claim")
	flag.StringVar(&role, "role", model.RoleStudent, "role claim (STUDENT, CLUB_ADMIN, SUPER_ADMIN)")
	flag.StringVar(&name, "name", "", "optional display name claim")
	flag.IntVar(&ttlMin, "ttl", 60, "token lifetime in minutes")
	flag.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (default: JWT_SECRET)")
	flag.Parse()

	role = strings.ToUpper(strings.TrimSpace(role))
	switch role {
	case model.RoleStudent, model.RoleClubAdmin, model.RoleSuperAdmin:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown role %q\n", role)
		os.Exit(2)
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET is not set")
		os.Exit(2)
	}
	if userID == 0 || ttlMin <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id and -ttl must be positive")
		os.Exit(2)
	}

	tok, err := utils.NewAccessToken(secret, userID, role, name, ttlMin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format("2006-01-02 15:04:05 MST"))
}
