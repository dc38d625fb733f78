package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/agency-ats/internal/config"
	"github.com/jonathan/agency-ats/internal/server"
)

var tokenAgencyID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an agency API token for local development",
	Long:  "Signs a bearer token for the given agency with JWT_SECRET. Production tokens come from the identity provider.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenAgencyID, "agency", "", "Agency ID (required)")

	if err := tokenCmd.MarkFlagRequired("agency"); err != nil {
		panic(fmt.Sprintf("failed to mark agency flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	token, err := issueToken(tokenAgencyID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func issueToken(agency string) (string, error) {
	agencyID, err := uuid.Parse(agency)
	if err != nil {
		return "", fmt.Errorf("invalid agency ID: %w", err)
	}
	if agencyID == uuid.Nil {
		return "", fmt.Errorf("agency ID must not be nil")
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return "", fmt.Errorf("failed to create JWT config: %w", err)
	}
	return server.NewJWTService(jwtConfig).GenerateToken(agencyID)
}
