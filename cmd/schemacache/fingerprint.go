package main

import (
	"fmt"

	"github.com/koustreak/schemacache/internal/version"
	"github.com/spf13/cobra"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Compare the live and the stored catalog fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		live, err := a.Service.LiveFingerprint(ctx)
		if err != nil {
			return err
		}
		stored, err := a.Service.Fingerprint(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "live:    %s\n", live)
		fmt.Fprintf(out, "stored:  %s\n", stored)
		fmt.Fprintf(out, "changed: %t\n", version.HasChanged(stored, live))
		return nil
	},
}
