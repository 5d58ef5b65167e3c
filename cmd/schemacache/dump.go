package main

import (
	"fmt"

	"github.com/koustreak/schemacache/internal/schema"
	"github.com/spf13/cobra"
)

var dumpFormat string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the current schema document",
	Long: `Print the schema document to stdout, rebuilding it first when the catalog
fingerprint no longer matches the cached one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := schema.ParseFormat(dumpFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.Service.GetSchema(ctx)
		if err != nil {
			return err
		}
		out, err := schema.Render(data, format)
		if err != nil {
			return err
		}
		if format == schema.FormatJSON {
			out = append(out, '\n')
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "json", "output format (json, yaml)")
}
