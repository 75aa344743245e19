package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/service"
)

func newCreateUserCommand(open Opener) *cobra.Command {
	var email, username, firstName, lastName, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context())
			if err != nil {
				return err
			}
			user, err := service.NewUserService(env.DB, env.Log).
				CreateUser(cmd.Context(), email, username, firstName, lastName, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	for _, name := range []string{"email", "username", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDeleteUserCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <email|username>",
		Short: "Delete a user; their recipes are kept under the deleted account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context())
			if err != nil {
				return err
			}
			users := service.NewUserService(env.DB, env.Log)
			user, err := users.FindByLogin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := users.Delete(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", user.Username)
			return nil
		},
	}
}
