package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"folklorovich/catalog"
	"folklorovich/rotation"
	"folklorovich/voice"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog and rotation state for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.Load(cfg.Paths.Catalog)
			if err != nil {
				return fmt.Errorf("catalog: %w", err)
			}
			if err := cat.Validate(); err != nil {
				return fmt.Errorf("catalog: %w", err)
			}
			fmt.Printf("✓ catalog ok: %d entries\n", cat.Len())

			unknown := 0
			for _, item := range cat.Items {
				if _, ok := voice.DefaultProfiles[item.VoiceProfile]; !ok {
					fmt.Printf("⚠️  entry %s uses unknown voice profile %q (default will be used)\n", item.ID, item.VoiceProfile)
					unknown++
				}
			}
			if unknown == 0 {
				fmt.Println("✓ all voice profiles known")
			}

			state, err := rotation.NewFileStore(cfg.Paths.State).Load()
			if err != nil {
				return fmt.Errorf("rotation state: %w", err)
			}
			stale := 0
			for _, id := range state.UsedIDsThisCycle {
				if _, ok := cat.Lookup(id); !ok {
					fmt.Printf("⚠️  used id %q no longer exists in the catalog\n", id)
					stale++
				}
			}
			if stale == 0 {
				fmt.Printf("✓ rotation state ok: cycle #%d, %d/%d used\n", state.CycleNumber, len(state.UsedIDsThisCycle), cat.Len())
			}
			return nil
		},
	}
}
