// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	apiURL  string
	output  string
	timeout time.Duration
)

var httpClient *http.Client

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "keyctl",
		Short:        "JWKS server CLI",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("KEYCTL_API_URL")
			}
			apiURL = strings.TrimRight(apiURL, "/")
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set KEYCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(jwksCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keyctl version %s\n", version)
		},
	}
}

// call はAPIを呼び出し、期待したステータスならレスポンスボディを返す。
func call(method, path string, wantStatus int) ([]byte, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set KEYCTL_API_URL)")
	}

	req, err := http.NewRequest(method, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

func expiredQuery(expired bool) string {
	if expired {
		return "?expired=true"
	}
	return ""
}

// jwksCmd は公開鍵セットの取得コマンド。
func jwksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jwks",
		Short: "Show the published key set",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(http.MethodGet, "/.well-known/jwks.json", http.StatusOK)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if output == "json" {
				fmt.Fprintln(out, string(body))
				return nil
			}

			var result struct {
				Keys []struct {
					Kid string `json:"kid"`
					Alg string `json:"alg"`
					Use string `json:"use"`
				} `json:"keys"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(out, "%-38s %-6s %s\n", "KID", "ALG", "USE")
			for _, k := range result.Keys {
				fmt.Fprintf(out, "%-38s %-6s %s\n", k.Kid, k.Alg, k.Use)
			}
			return nil
		},
	}
}

// tokenCmd はトークン発行コマンド。
func tokenCmd() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(http.MethodPost, "/auth"+expiredQuery(expired), http.StatusOK)
			if err != nil {
				return err
			}
			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			var result struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "Sign with an expired key")
	return cmd
}

type keyMetadata struct {
	Kid       string `json:"kid"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

// keysCmd は管理用の鍵操作コマンド。
func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all signing keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(http.MethodGet, "/keys", http.StatusOK)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if output == "json" {
				fmt.Fprintln(out, string(body))
				return nil
			}
			var result struct {
				Keys []keyMetadata `json:"keys"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(out, "%-38s %-8s %-22s %s\n", "KID", "STATUS", "CREATED_AT", "EXPIRES_AT")
			for _, k := range result.Keys {
				fmt.Fprintf(out, "%-38s %-8s %-22s %s\n", k.Kid, k.Status, k.CreatedAt, k.ExpiresAt)
			}
			return nil
		},
	})

	var expired bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Generate a new signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(http.MethodPost, "/keys"+expiredQuery(expired), http.StatusCreated)
			if err != nil {
				return err
			}
			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			var k keyMetadata
			if err := json.Unmarshal(body, &k); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s key %s (expires_at: %s)\n", k.Status, k.Kid, k.ExpiresAt)
			return nil
		},
	}
	create.Flags().BoolVar(&expired, "expired", false, "Create an already-expired key")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "issuances <kid>",
		Short: "List tokens issued with a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(http.MethodGet, "/keys/"+url.PathEscape(args[0])+"/issuances", http.StatusOK)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if output == "json" {
				fmt.Fprintln(out, string(body))
				return nil
			}
			var result struct {
				Issuances []struct {
					Subject   string `json:"subject"`
					Expired   bool   `json:"expired"`
					IssuedAt  string `json:"issued_at"`
					ExpiresAt string `json:"expires_at"`
				} `json:"issuances"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(out, "%-22s %-22s %-8s %s\n", "ISSUED_AT", "EXPIRES_AT", "EXPIRED", "SUBJECT")
			for _, is := range result.Issuances {
				fmt.Fprintf(out, "%-22s %-22s %-8t %s\n", is.IssuedAt, is.ExpiresAt, is.Expired, is.Subject)
			}
			return nil
		},
	})

	return cmd
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("Error: %s", errResp.Error)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
