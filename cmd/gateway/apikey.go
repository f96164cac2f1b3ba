package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"public-audio-gateway/access/application"
	"public-audio-gateway/access/domain"
	accessinfra "public-audio-gateway/access/infra"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	apikeyAccount string
	apikeyName    string
	apikeyExpires time.Duration
	apikeyID      string
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage account API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key (the raw key is printed once)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		accountID, err := uuid.Parse(apikeyAccount)
		if err != nil {
			return fmt.Errorf("invalid --account: %w", err)
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		if _, err := repo.FindAccount(cmd.Context(), accountID); err != nil {
			return fmt.Errorf("account %s: %w", accountID, err)
		}

		raw, key, err := application.Keys{Repo: repo}.Issue(cmd.Context(), accountID, apikeyName, apikeyExpires)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:      %s\n", key.ID)
		fmt.Fprintf(out, "name:    %s\n", key.Name)
		fmt.Fprintf(out, "preview: %s\n", key.KeyPreview)
		if key.ExpiresAt != nil {
			fmt.Fprintf(out, "expires: %s\n", key.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Fprintf(out, "key:     %s\n", raw)
		return nil
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an account's API keys, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		accountID, err := uuid.Parse(apikeyAccount)
		if err != nil {
			return fmt.Errorf("invalid --account: %w", err)
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		keys, err := application.Keys{Repo: repo}.List(cmd.Context(), accountID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPREVIEW\tCREATED\tLAST USED\tEXPIRES")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				k.ID, k.Name, k.KeyPreview,
				k.CreatedAt.Format(time.RFC3339), formatOptionalTime(k.LastUsedAt), formatOptionalTime(k.ExpiresAt))
		}
		return w.Flush()
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Delete an API key; requests using it get 401 from then on",
	RunE: func(cmd *cobra.Command, _ []string) error {
		accountID, err := uuid.Parse(apikeyAccount)
		if err != nil {
			return fmt.Errorf("invalid --account: %w", err)
		}
		keyID, err := uuid.Parse(apikeyID)
		if err != nil {
			return fmt.Errorf("invalid --id: %w", err)
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		err = application.Keys{Repo: repo}.Revoke(cmd.Context(), accountID, keyID)
		if errors.Is(err, domain.ErrAPIKeyNotFound) {
			return fmt.Errorf("api key %s not found for account %s", keyID, accountID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", keyID)
		return nil
	},
}

func init() {
	apikeyCreateCmd.Flags().StringVar(&apikeyAccount, "account", "", "account UUID")
	apikeyCreateCmd.Flags().StringVar(&apikeyName, "name", "", "key name")
	apikeyCreateCmd.Flags().DurationVar(&apikeyExpires, "expires", 0, "key lifetime, e.g. 720h (0 = never)")
	_ = apikeyCreateCmd.MarkFlagRequired("account")
	_ = apikeyCreateCmd.MarkFlagRequired("name")

	apikeyListCmd.Flags().StringVar(&apikeyAccount, "account", "", "account UUID")
	_ = apikeyListCmd.MarkFlagRequired("account")

	apikeyRevokeCmd.Flags().StringVar(&apikeyAccount, "account", "", "account UUID")
	apikeyRevokeCmd.Flags().StringVar(&apikeyID, "id", "", "API key UUID (see apikey list)")
	_ = apikeyRevokeCmd.MarkFlagRequired("account")
	_ = apikeyRevokeCmd.MarkFlagRequired("id")

	apikeyCmd.AddCommand(apikeyCreateCmd)
	apikeyCmd.AddCommand(apikeyListCmd)
	apikeyCmd.AddCommand(apikeyRevokeCmd)
}

func openRepository() (*accessinfra.GormRepository, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	db, err := accessinfra.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {}
	if sqlDB, err := db.DB(); err == nil {
		closeDB = func() { _ = sqlDB.Close() }
	}
	return accessinfra.NewGormRepository(db), closeDB, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
