package main

import (
	"fmt"

	"smartclaim/internal/session"

	"github.com/spf13/cobra"
)

var (
	tokenOwner string
	tokenRole  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token signed with SMARTCLAIM_TOKEN_SECRET",
	Long: `Prints a bearer token for the API. Agent tokens may start batch imports
and load customer records; guest and user tokens may not.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "owner key (a guest key is generated when empty)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(session.RoleUser), "guest, user or agent")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	role := session.Role(tokenRole)
	switch role {
	case session.RoleGuest, session.RoleUser, session.RoleAgent:
	default:
		return fmt.Errorf("unknown role %q", tokenRole)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	token, c, err := session.NewIssuer(cfg.TokenSecret, cfg.TokenTTL()).Issue(tokenOwner, role)
	if err != nil {
		return err
	}
	cmd.Printf("owner=%s role=%s expires=%s\n", c.Owner, c.Role, c.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
	cmd.Println(token)
	return nil
}
