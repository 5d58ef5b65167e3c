package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Bring the stored document up to date",
	Long: `Compare the live catalog fingerprint with the stored one and rebuild the
document when they differ. --force rebuilds unconditionally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if refreshForce {
			err = a.Service.Rebuild(ctx)
		} else {
			err = a.Service.Refresh(ctx)
		}
		if err != nil {
			return err
		}

		fp, err := a.Service.Fingerprint(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fp.Short())
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "rebuild even when the fingerprint is unchanged")
}
