// Command token mints a caller bearer token for local testing. It reads the
// same JWT_* environment as the server.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "kitties/internal/jwt_token"
	"kitties/internal/platform/config"
	id "kitties/pkg/domain"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		callerHex string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a caller token for the kitties API",
		Long: `Mint an HS256 bearer token whose subject is the caller account.

Examples:
  # Token for account 0x0a00..00, valid for an hour
  token --caller 0x0a00000000000000000000000000000000000000000000000000000000000000

  # Use it against a local server
  curl -H "Authorization: Bearer $(token -c 0x0a...)" localhost:8080/kitties`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			caller, err := id.ParseAccountID(callerHex)
			if err != nil {
				return err
			}
			token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience).
				GenerateCallerToken(caller, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}
	cmd.Flags().StringVarP(&callerHex, "caller", "c", "", "caller account id, 32 bytes hex")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}
