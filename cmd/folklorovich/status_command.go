package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"folklorovich/catalog"
	"folklorovich/ledger"
	"folklorovich/quota"
	"folklorovich/rotation"
)

func newStatusCommand() *cobra.Command {
	var tail int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show rotation state, run counters, and API quota usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			state, err := rotation.NewFileStore(cfg.Paths.State).Load()
			if err != nil {
				return err
			}

			total := "?"
			if cat, err := catalog.Load(cfg.Paths.Catalog); err == nil {
				total = fmt.Sprintf("%d", cat.Len())
			}

			fmt.Printf("Cycle:          #%d (%d/%s items used)\n", state.CycleNumber, len(state.UsedIDsThisCycle), total)
			if state.LastSelectedID != "" {
				fmt.Printf("Last selected:  %s at %s\n", state.LastSelectedID, state.LastRunAt)
			}
			c := state.Counters
			fmt.Printf("Runs:           %d total, %d succeeded, %d failed\n", c.TotalRuns, c.SuccessfulRuns, c.FailedRuns)
			if c.SuccessfulRuns > 0 {
				fmt.Printf("Average run:    %.1fs\n", c.AverageRunSec)
			}
			if c.LastError != "" {
				fmt.Printf("Last error:     %s\n", c.LastError)
			}

			if counter, err := quota.Open(cfg.Paths.UsageLog); err == nil {
				fmt.Printf("Quota today:    %s %d/%d requests\n",
					cfg.Fetch.Service, counter.TodayCount(cfg.Fetch.Service), cfg.Quota.DailyLimit)
			}

			if tail > 0 {
				records, err := ledger.New(cfg.Paths.Ledger).Tail(tail)
				if err != nil {
					return err
				}
				if len(records) > 0 {
					fmt.Println("\nRecent runs:")
					for _, rec := range records {
						line := fmt.Sprintf("  %s  %-9s %s", rec.StartedAt, rec.Status, rec.ItemID)
						if rec.FailedStage != "" {
							line += fmt.Sprintf("  [%s: %s]", rec.FailedStage, rec.ErrorKind)
						}
						fmt.Println(line)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 5, "number of recent ledger entries to show (0 to hide)")
	return cmd
}
