package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/brandos/internal/config"
	"github.com/jonathan/brandos/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token <client>",
	Short: "Issue an API bearer token signed with JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewJWTConfig()
		if err != nil {
			return err
		}
		token, err := server.NewJWTService(cfg).GenerateToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
