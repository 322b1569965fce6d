package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kodbank-cli",
		Short: "Kodbank CLI tool",
		Long:  `A command line interface for interacting with the Kodbank API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:5000", "Base URL of the Kodbank API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("KODBANK_TOKEN"), "Session token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		registerCmd(),
		loginCmd(),
		balanceCmd(),
		depositCmd(),
		withdrawCmd(),
		transferCmd(),
		transactionsCmd(),
		consistencyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func registerCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Open a new account",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/register", map[string]any{
				"name":     name,
				"email":    email,
				"password": password,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Account holder name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/login", map[string]any{
				"email":    email,
				"password": password,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the current balance",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/balance", nil)
		},
	}
}

func depositCmd() *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit cash into the account",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/deposit", map[string]any{"amount": amount})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount to deposit")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func withdrawCmd() *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw cash from the account",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/withdraw", map[string]any{"amount": amount})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount to withdraw")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func transferCmd() *cobra.Command {
	var toEmail, amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer money to another account",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/transfer", map[string]any{
				"to_email": toEmail,
				"amount":   amount,
			})
		},
	}

	cmd.Flags().StringVar(&toEmail, "to", "", "Recipient email")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func transactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List recent ledger entries, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, fmt.Sprintf("/api/transactions?limit=%d", limit), nil)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")

	return cmd
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that balances and the entry log agree",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/ledger/consistency", nil)
		},
	}
}

func doJSON(method, path string, payload map[string]any) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}
