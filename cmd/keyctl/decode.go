package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

// decodeCmd は署名を検証せずにトークンのヘッダとクレームを表示する。
func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Print token header and claims without verifying the signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims := jwt.MapClaims{}
			token, _, err := jwt.NewParser().ParseUnverified(args[0], claims)
			if err != nil {
				return fmt.Errorf("parsing token: %w", err)
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				b, err := json.Marshal(map[string]any{"header": token.Header, "claims": claims})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}

			fmt.Fprintf(out, "kid: %v\nalg: %v\n", token.Header["kid"], token.Header["alg"])
			if sub, err := claims.GetSubject(); err == nil {
				fmt.Fprintf(out, "sub: %s\n", sub)
			}
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				state := "valid"
				if !exp.After(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "exp: %s (%s)\n", exp.UTC().Format(time.RFC3339), state)
			}
			return nil
		},
	}
}
