// readlater-token mints a bearer token for a bot user id. The bot front end
// uses it to call the readlater API on behalf of a chat user.
package main

import (
	"fmt"
	"os"

	"readlater/internal/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	var (
		userID int64
		ttl    = auth.DefaultTTL
		secret = os.Getenv("JWT_SECRET")
	)

	flags := pflag.NewFlagSet("readlater-token", pflag.ContinueOnError)
	flags.Int64Var(&userID, "user", 0, "bot user id to embed as the token subject")
	flags.DurationVar(&ttl, "ttl", ttl, "token lifetime")
	flags.StringVar(&secret, "secret", secret, "HMAC secret (default: $JWT_SECRET)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if userID == 0 {
		return fmt.Errorf("--user is required")
	}
	if secret == "" {
		return fmt.Errorf("--secret or JWT_SECRET is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	token, err := auth.NewJWT(secret).Sign(userID, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
