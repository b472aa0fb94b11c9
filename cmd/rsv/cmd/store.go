/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/rsv/pkg/api"
	"github.com/ssargent/rsv/pkg/codec"
)

// openStore opens the row store in the configured data directory
func openStore() (api.IRowStore, error) {
	cfg := container.GetConfig()
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	store, err := container.GetStoreFactory().OpenStore(cfg.DataDir, container.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an RSV stream into the row store",
	Long: `Import every row of an RSV file, or of standard input, into the row store
kept in the data directory. The import is all or nothing: a malformed row
aborts it before anything is stored.

Examples:
  rsv import data.rsv
  rsv import --data-dir ./mydata data.rsv.zst`,
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

		r, closer, err := openInput(path, algo, cfg.Codec.BufferSize, cmd.InOrStdin(), codec.DecodeOptions{})
		if err != nil {
			return err
		}
		defer closer.Close()

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Import(r)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		cmd.Printf("Imported %d rows into %s\n", n, cfg.DataDir)
		return nil
	},
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the row store as an RSV stream",
	Long: `Write every stored row, in insertion order, to an RSV file or to standard
output.

Examples:
  rsv export backup.rsv
  rsv export - --compression zstd > backup.rsv.zst`,
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

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		w, closer, err := openOutput(path, algo, cfg.Codec.BufferSize, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		n, err := store.Export(w)
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if path != stdio {
			cmd.Printf("Exported %d rows to %s\n", n, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	importCmd.Flags().String("compression", "", "Compression of the input (none, zstd, gzip, snappy)")
	exportCmd.Flags().String("compression", "", "Compression of the output (none, zstd, gzip, snappy)")
}
