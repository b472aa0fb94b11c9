/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ssargent/rsv/pkg/api"
	"github.com/ssargent/rsv/pkg/rsv"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Encode JSON rows as RSV",
	Long: `Encode JSON arrays of strings, one per row, into an RSV stream. null
becomes a null field. Input is read from the file or from standard input.

The output file's extension selects compression unless --compression is set.

Examples:
  echo '["a", null, ""]' | rsv encode -w out.rsv
  rsv encode rows.jsonl -w out.rsv.zst`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.GetConfig()
		logger := container.GetLogger()

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != stdio {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			in = f
		}

		output, _ := cmd.Flags().GetString("write")
		compression, _ := cmd.Flags().GetString("compression")
		algo, err := algorithmFor(output, compression, cfg.Compression)
		if err != nil {
			return err
		}

		w, closer, err := openOutput(output, algo, cfg.Codec.BufferSize, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		rows, err := encodeJSONRows(in, w)
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}

		logger.Info().Int64("rows", rows).Int64("bytes", w.Size()).Str("compression", string(algo)).
			Int("buffer_size", w.BufferSize()).Msg("encoded")
		return nil
	},
}

// encodeJSONRows reads a sequence of JSON arrays from in and writes each as
// one row. It stops at the first row that cannot be parsed or encoded.
func encodeJSONRows(in io.Reader, w *rsv.Writer) (int64, error) {
	dec := json.NewDecoder(in)
	var n int64
	for {
		var row api.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("row %d: invalid JSON: %w", n+1, err)
		}
		if err := w.WriteRecord(row.Fields()); err != nil {
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}
		n++
	}
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("write", "w", stdio, "Output file (- for standard output)")
	encodeCmd.Flags().String("compression", "", "Compression of the output (none, zstd, gzip, snappy)")
}
