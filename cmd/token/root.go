package token

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/nkv/cmd/util"
	"github.com/ValentinKolb/nkv/lib/auth"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db *gorm.DB

	// TokenCommands represents the token administration command group.
	// These commands operate directly on the database and are meant to be
	// run on the host serving it.
	TokenCommands = &cobra.Command{
		Use:               "token",
		Short:             "Manage API tokens",
		PersistentPreRunE: openDatabase,
	}
)

func init() {
	TokenCommands.PersistentFlags().String("db", "", util.WrapString("Path of the SQLite database holding the token table"))

	// Add subcommands
	TokenCommands.AddCommand(createCmd)
	TokenCommands.AddCommand(listCmd)
	TokenCommands.AddCommand(revokeCmd)
}

// openDatabase opens the configured database and migrates the token table
func openDatabase(cmd *cobra.Command, _ []string) error {
	dsn, _ := cmd.Flags().GetString("db")
	if dsn == "" {
		return fmt.Errorf("--db is required")
	}

	var err error
	db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	return db.AutoMigrate(&auth.AccessToken{})
}

var (
	createCmd = &cobra.Command{
		Use:   "create [namespaces]",
		Short: "Creates a token granting access to a comma-separated list of namespaces ('*' for all)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record := auth.AccessToken{
				Token:      uuid.NewString(),
				Namespaces: args[0],
				Active:     true,
			}
			if err := db.Create(&record).Error; err != nil {
				return err
			}
			fmt.Printf("token=%s namespaces=%s\n", record.Token, record.Permissions())
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []auth.AccessToken
			if err := db.Order("created_at").Find(&records).Error; err != nil {
				return err
			}
			for _, record := range records {
				state := "active"
				if !record.Active {
					state = "revoked"
				}
				fmt.Printf("%s  %-8s  %s\n", record.Token, state, record.Permissions())
			}
			return nil
		},
	}
	revokeCmd = &cobra.Command{
		Use:   "revoke [token]",
		Short: "Revokes a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			res := db.Model(&auth.AccessToken{}).Where("token = ?", token).Update("active", false)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("unknown token")
			}
			fmt.Println("token revoked")
			return nil
		},
	}
)
