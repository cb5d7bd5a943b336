package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"library-catalog/auth"
	"library-catalog/config"
	"library-catalog/library"
)

func newAddUserCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var role, dbPath string

	cmd := &cobra.Command{
		Use:   "add-user <username>",
		Short: "Create an account, prompting for its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			r := library.Role(role)
			if !r.Valid() {
				return errors.Errorf("role must be %q or %q", library.RoleAdmin, library.RoleUser)
			}
			hasher, err := auth.NewHasher(cfg.PasswordHasher)
			if err != nil {
				return err
			}

			username := args[0]
			password, err := readPassword(fmt.Sprintf("Enter password for %s: ", username))
			if err != nil {
				return errors.Wrap(err, "failed to read password")
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return errors.Wrap(err, "failed to read password")
			}
			if password == "" || password != confirm {
				return errors.New("passwords are empty or do not match")
			}
			digest, err := hasher.Hash(password)
			if err != nil {
				return err
			}

			db, err := library.NewDatabase(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := db.AddAccount(cmd.Context(), username, digest, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created with ID %d (role: %s)\n", username, id, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(library.RoleUser), "account role (admin or user)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides LIBRARY_DB)")
	return cmd
}

func newHashPasswordCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print the stored digest for a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			hasher, err := auth.NewHasher(cfg.PasswordHasher)
			if err != nil {
				return err
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return errors.Wrap(err, "failed to read password")
			}
			digest, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
}
