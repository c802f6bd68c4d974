// Command stepsquadctl holds operator chores: hashing the scheduler secret
// for CRON_SECRET_HASH and minting access tokens for local testing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/DhavalSuthar-24/stepsquad/config"
	"github.com/DhavalSuthar-24/stepsquad/pkg/token"
	"github.com/DhavalSuthar-24/stepsquad/utils"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "hash-secret":
		err = hashSecret(os.Args[2:])
	case "token":
		err = mintToken(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  stepsquadctl hash-secret <secret>
  stepsquadctl token -uid <id> -email <email> [-role ADMIN|MEMBER] [-minutes 60]`)
}

func hashSecret(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("hash-secret takes exactly one non-empty secret")
	}
	hash, err := utils.HashSecret(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func mintToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	uid := fs.String("uid", "", "user id")
	email := fs.String("email", "", "user email")
	role := fs.String("role", "", "role claim (ADMIN or MEMBER)")
	minutes := fs.Int("minutes", 0, "expiry in minutes (defaults to JWT_ACCESS_TOKEN_EXPIRY_MINUTES)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" {
		return fmt.Errorf("-uid is required")
	}

	if err := config.Initialize(); err != nil {
		return err
	}
	cfg := config.GetConfig()
	if cfg.JWT.AccessTokenSecret == "" {
		return fmt.Errorf("JWT_ACCESS_TOKEN_SECRET is not set")
	}
	expiry := *minutes
	if expiry <= 0 {
		expiry = cfg.JWT.AccessTokenExpiryMinutes
	}

	signed, err := token.GenerateJWT(*uid, *email, *role, cfg.JWT.AccessTokenSecret, expiry)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
