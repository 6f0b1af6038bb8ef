package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/config"
	"github.com/noah-isme/gema-academic-api/internal/database"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger := newLogger(cmd, cfg.AppEnv)

		db, err := openDatabase(cmd, cfg, logger)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		logger.Info().Int("models", len(database.Models())).Msg("schema migrated")
		return nil
	},
}

var grantRoleCmd = &cobra.Command{
	Use:   "grant-role <user-id> <role>",
	Short: "Assign an application role (admin, faculty, student, parent) to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || userID == 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		role := strings.ToLower(strings.TrimSpace(args[1]))
		switch role {
		case models.RoleAdmin, models.RoleFaculty, models.RoleStudent, models.RoleParent:
		default:
			return fmt.Errorf("unknown role %q", args[1])
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger := newLogger(cmd, cfg.AppEnv)

		db, err := openDatabase(cmd, cfg, logger)
		if err != nil {
			return err
		}
		if err := repository.NewRoleRepository(db).Assign(cmd.Context(), uint(userID), role); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}

		logger.Info().Uint64("user_id", userID).Str("role", role).Msg("role granted")
		return nil
	},
}

func openDatabase(cmd *cobra.Command, cfg config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBPool.MaxOpenConns,
		MaxIdleConns:    cfg.DBPool.MaxIdleConns,
		ConnMaxLifetime: cfg.DBPool.ConnMaxLifetime,
	}, logger, verbose)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
