package main

import (
	"errors"
	"fmt"
	"time"

	"call-manager/internal/auth"
	"call-manager/internal/config"
	"call-manager/internal/rbac"

	"github.com/spf13/cobra"
)

// tokenCmd mints a signed API token for a calling client.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token",
	Long:  "Print a signed bearer token for a client using AUTH_JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().String("client", "", "client id carried in the token (required)")
	tokenCmd.Flags().String("role", rbac.RoleDispatcher, "role: admin, dispatcher or viewer")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default AUTH_TOKEN_TTL)")
	_ = tokenCmd.MarkFlagRequired("client")
}

func runToken(cmd *cobra.Command, args []string) error {
	clientID, _ := cmd.Flags().GetString("client")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if !rbac.Valid(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.AuthEnabled() {
		return errors.New("AUTH_JWT_SECRET is not set")
	}

	m, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return err
	}
	tok, err := m.Issue(time.Now(), clientID, role, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
	return err
}
