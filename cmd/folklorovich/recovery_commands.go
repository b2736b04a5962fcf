package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"folklorovich/rotation"
)

// Recovery primitives for the rotation state. A failed run keeps its item
// marked used for the rest of the cycle; these commands undo that manually.

func newResetCycleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-cycle",
		Short: "Clear the current cycle's used-item set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lock, err := rotation.AcquireLock(cfg.Paths.Lock)
			if err != nil {
				return err
			}
			defer lock.Release()

			store := rotation.NewFileStore(cfg.Paths.State)
			state, err := store.Load()
			if err != nil {
				return err
			}
			cleared := len(state.UsedIDsThisCycle)
			state.UsedIDsThisCycle = nil
			if err := store.Save(state); err != nil {
				return err
			}
			fmt.Printf("Cleared %d used ids; cycle #%d restarts from a full candidate set\n", cleared, state.CycleNumber)
			return nil
		},
	}
}

func newUnmarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unmark <id>",
		Short: "Remove one item id from the current cycle's used set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lock, err := rotation.AcquireLock(cfg.Paths.Lock)
			if err != nil {
				return err
			}
			defer lock.Release()

			store := rotation.NewFileStore(cfg.Paths.State)
			state, err := store.Load()
			if err != nil {
				return err
			}
			if !state.Unmark(args[0]) {
				return fmt.Errorf("id %q is not marked used in cycle #%d", args[0], state.CycleNumber)
			}
			if err := store.Save(state); err != nil {
				return err
			}
			fmt.Printf("Unmarked %s; it is selectable again this cycle\n", args[0])
			return nil
		},
	}
}
