package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/learnpath/internal/store"
	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Inspect calls made to the course service",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent course service calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		op, _ := cmd.Flags().GetString("op")
		failed, _ := cmd.Flags().GetBool("failed")
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, Op: op, FailedOnly: failed}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := s.RequestLogRepo().Query(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No requests recorded.")
			return nil
		}

		// Header.
		fmt.Fprintf(out, "%-5s  %-19s  %-20s  %-28s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Operation", "Target", "Status", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-20s  %-28s  %-6d  %-7d  %s\n",
				e.ID,
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Op, 20),
				truncate(e.Target, 28),
				e.StatusCode,
				e.LatencyMs,
				ok,
			)
			if !e.Success && e.ErrorMessage != "" {
				fmt.Fprintf(out, "       %s\n", truncate(e.ErrorMessage, 90))
			}
		}
		return nil
	},
}

var requestsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts, failures and latency per operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		stats, err := s.RequestLogRepo().Stats(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No requests recorded.")
			return nil
		}

		fmt.Fprintln(out, "Calls by Operation")
		fmt.Fprintln(out, strings.Repeat("─", 64))
		fmt.Fprintf(out, "%-22s  %8s  %8s  %8s  %10s\n",
			"Operation", "Calls", "Failed", "Rate", "Avg Ms")
		fmt.Fprintln(out, strings.Repeat("─", 64))

		var totalCalls, totalFailed int
		for _, st := range stats {
			fmt.Fprintf(out, "%-22s  %8d  %8d  %8s  %10.1f\n",
				truncate(st.Op, 22), st.Count, st.Failures, failureRate(st.Failures, st.Count), st.AvgLatencyMs)
			totalCalls += st.Count
			totalFailed += st.Failures
		}

		fmt.Fprintln(out, strings.Repeat("─", 64))
		fmt.Fprintf(out, "%-22s  %8d  %8d  %8s\n",
			"TOTAL", totalCalls, totalFailed, failureRate(totalFailed, totalCalls))
		return nil
	},
}

func failureRate(failed, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(failed)*100/float64(total))
}

// openStore opens only the local database, for commands that never reach
// the service.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func init() {
	requestsListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	requestsListCmd.Flags().StringP("op", "o", "", "Filter by operation (e.g. get_course, mark_completed)")
	requestsListCmd.Flags().Bool("failed", false, "Only show failed requests")
	requestsListCmd.Flags().Duration("since", 0, "Only show requests newer than this (e.g. 24h)")
	requestsStatsCmd.Flags().Duration("since", 0, "Only count requests newer than this (e.g. 24h)")

	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsStatsCmd)
}
