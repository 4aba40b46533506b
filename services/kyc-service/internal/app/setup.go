package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/db"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Setup the audit database",
	Long:  "Creates the tables the KYC service persists workflow runs into",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		pool, err := db.Connect(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if pool == nil {
			return fmt.Errorf("database.url not configured")
		}
		defer pool.Close()

		// Run migrations
		fmt.Println("Running migrations...")
		migrationSQL := `
			-- One row per completed workflow run (audit trail only)
			CREATE TABLE IF NOT EXISTS workflow_runs (
			    id UUID PRIMARY KEY,
			    subject VARCHAR(512) NOT NULL,
			    category VARCHAR(32) NOT NULL,
			    customer_id VARCHAR(64) NOT NULL,
			    status VARCHAR(32) NOT NULL,
			    risk_level VARCHAR(16),
			    verification VARCHAR(16) NOT NULL,
			    confidence DOUBLE PRECISION NOT NULL,
			    processing_seconds DOUBLE PRECISION NOT NULL,
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_runs_created_at ON workflow_runs(created_at);
			CREATE INDEX IF NOT EXISTS idx_workflow_runs_category ON workflow_runs(category);
		`

		if _, err := pool.Exec(ctx, migrationSQL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("✓ Database setup complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
