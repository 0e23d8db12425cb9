// Command examctl runs maintenance tasks against the exam service database:
// schema migration, admin provisioning and offline question imports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SAP-F-2025/exam-service/internal/app"
	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/pkg"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "examctl",
		Short:         "Maintenance commands for the exam service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(migrateCmd(), createAdminCmd(), importCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := pkg.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := pkg.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin account or reset its password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viperForCmd(cmd)
			account := v.GetString("account")
			password := v.GetString("password")
			if password == "" {
				return errors.New("a password is required (--password or EXAMCTL_PASSWORD)")
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.Services.Auth().EnsureAdmin(cmd.Context(), account, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin %q ready (id %d)\n", user.Account, user.ID)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.String("account", "admin", "Admin username")
	f.String("password", "", "Admin password")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a .docx, .xlsx or .csv question file into a bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viperForCmd(cmd)
			bankID := v.GetUint("bank")
			if bankID == 0 {
				return errors.New("--bank is required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Services.Import().Import(cmd.Context(), &services.ImportRequest{
					BankID:   bankID,
					FileName: filepath.Base(args[0]),
					File:     f,
				})
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			})
		},
	}
	cmd.Flags().Uint("bank", 0, "Target question bank ID")
	return cmd
}

// viperForCmd binds a command's flags and EXAMCTL_* environment variables.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	v.SetEnvPrefix("EXAMCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func withApp(ctx context.Context, fn func(*app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(a)
}
