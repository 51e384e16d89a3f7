package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/contentgate/bootstrap"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long: `Manage items of the identity list.

Examples:
  contentgate users create --name=Ada --email=ada@example.com --password=...`,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE:  runUsersCreate,
}

var (
	userName     string
	userEmail    string
	userPassword string
	userAdmin    bool
)

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)

	usersCreateCmd.Flags().StringVar(&userName, "name", "", "user name")
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "user email (required)")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "user password (required)")
	usersCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "grant admin")
	usersCreateCmd.MarkFlagRequired("email")
	usersCreateCmd.MarkFlagRequired("password")
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer app.Shutdown()

	auth := app.Auth.Config()
	data := map[string]any{
		auth.IdentityField: userEmail,
		auth.SecretField:   userPassword,
	}
	if userName != "" {
		data["name"] = userName
	}
	if userAdmin {
		data["isAdmin"] = true
	}

	item, err := app.Runtime.CreateOne(context.Background(), auth.ListKey, data)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", auth.ListKey, item.ID(), userEmail)
	return nil
}
