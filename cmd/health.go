package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/database"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check if the database used by validate and introspect is accessible.

Examples:
  erdkit health                    # Check default database connection
  erdkit health --timeout 10s      # Set custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDatabaseHealth(cmd.Context()); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		fmt.Println("✅ Database is healthy and accessible")
		return nil
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	pool, err := database.GetPool(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database pool: %w", err)
	}
	defer database.ClosePool()

	var count int
	query := `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`
	if err := pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return fmt.Errorf("failed to count tables: %w", err)
	}

	fmt.Printf("📊 Found %d tables to introspect\n", count)
	return nil
}
