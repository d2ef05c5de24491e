package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/auth"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator setup",
}

var adminHashCmd = &cobra.Command{
	Use:   "hash-secret [secret]",
	Short: "Print the bcrypt hash to put in CBOT_ADMIN_SECRET_HASH",
	Long:  "Hashes the administrator secret. Without an argument the secret is read from standard input.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var secret string
		if len(args) == 1 {
			secret = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read secret: %w", err)
			}
			secret = strings.TrimRight(line, "\r\n")
		}
		if strings.TrimSpace(secret) == "" {
			return errors.New("secret must not be empty")
		}

		hash, err := auth.HashSecret(secret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	adminCmd.AddCommand(adminHashCmd)
}
