/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/rsv/pkg/codec"
)

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count [file]",
	Short: "Count the rows of an RSV stream",
	Long: `Count the rows of an RSV file, or of standard input, and report how many
of them are malformed.

Examples:
  rsv count data.rsv
  rsv count --strict -o json data.rsv.gz`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.GetConfig()

		path := stdio
		if len(args) == 1 {
			path = args[0]
		}
		compression, _ := cmd.Flags().GetString("compression")
		algo, err := algorithmFor(path, compression, cfg.Compression)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")
		format, _ := cmd.Flags().GetString("format")

		r, closer, err := openInput(path, algo, cfg.Codec.BufferSize, cmd.InOrStdin(), codec.DecodeOptions{Strict: cfg.Codec.Strict})
		if err != nil {
			return err
		}
		defer closer.Close()

		stats, err := scanRows(r, strict || cfg.Codec.Strict, container.GetLogger(), nil)
		if err != nil {
			return err
		}

		return printSummary(cmd.OutOrStdout(), format, [][2]any{
			{"rows", stats.Rows},
			{"invalid", stats.Invalid},
			{"bytes", stats.Bytes},
		})
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
	countCmd.Flags().String("compression", "", "Compression of the input (none, zstd, gzip, snappy)")
	countCmd.Flags().Bool("strict", false, "Also count rows holding invalid UTF-8 as invalid")
}
