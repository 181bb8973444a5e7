package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/oraculo-ai/oraculo/internal/config"
	"github.com/oraculo-ai/oraculo/internal/repository"
)

// SessionsCmd returns the sessions command for inspecting stored conversations.
func SessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List conversation sessions",
		RunE:  runSessions,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of sessions to list")
	cmd.Flags().String("cursor", "", "Pagination cursor from a previous page")

	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")

	page, err := repository.NewSessionRepository(pool).ListSessions(ctx, limit, cursor)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(page.Items) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	for _, s := range page.Items {
		fmt.Printf("%s\t%d messages\tlast activity %s\n",
			s.SessionID, s.MessageCount, s.LastActivity.UTC().Format(time.RFC3339))
	}
	if page.HasMore {
		fmt.Printf("\nNext page: --cursor %s\n", page.Cursor)
	}
	return nil
}
