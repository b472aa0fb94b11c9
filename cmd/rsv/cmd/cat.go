/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ssargent/rsv/pkg/codec"
	"github.com/ssargent/rsv/pkg/rsv"
)

// scanStats summarizes one pass over a stream
type scanStats struct {
	Rows    int64
	Invalid int64
	Bytes   int64
}

// scanRows reads every row of r and hands the well-formed ones to fn.
// Malformed rows are logged and counted, and scanning continues with the
// next row. With strict set, rows must also be valid UTF-8 with nothing
// after the row terminator.
func scanRows(r *rsv.Reader, strict bool, logger zerolog.Logger, fn func(row int64, fields []codec.Field) error) (scanStats, error) {
	var (
		stats scanStats
		raw   []byte
		err   error
	)
	for {
		raw, err = r.ReadRaw(raw[:0])
		if errors.Is(err, io.EOF) {
			stats.Bytes = r.Offset()
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.Rows++

		if strict {
			if err := codec.ValidateRow(raw); err != nil {
				stats.Invalid++
				logger.Warn().Err(err).Int64("row", stats.Rows).Msg("skipping invalid row")
				continue
			}
		}

		fields, err := codec.SplitRow(raw)
		if err != nil {
			stats.Invalid++
			logger.Warn().Err(err).Int64("row", stats.Rows).Msg("skipping malformed row")
			continue
		}
		if fn == nil {
			continue
		}
		if err := fn(stats.Rows, fields); err != nil {
			return stats, err
		}
	}
}

// errStopScan ends a scan early without reporting a failure.
var errStopScan = errors.New("stop scan")

// catCmd represents the cat command
var catCmd = &cobra.Command{
	Use:   "cat [file]",
	Short: "Print the rows of an RSV stream",
	Long: `Print the rows of an RSV file, or of standard input when no file is given.

Compressed files are recognised by extension (.zst, .gz, .sz). Malformed rows
are reported on stderr and skipped.

Examples:
  rsv cat data.rsv
  rsv cat data.rsv.zst --limit 10
  rsv cat -o json < data.rsv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.GetConfig()
		logger := container.GetLogger()

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
		limit, _ := cmd.Flags().GetInt64("limit")
		format, _ := cmd.Flags().GetString("format")

		r, closer, err := openInput(path, algo, cfg.Codec.BufferSize, cmd.InOrStdin(), codec.DecodeOptions{Strict: strict || cfg.Codec.Strict})
		if err != nil {
			return err
		}
		defer closer.Close()

		p, err := newRowPrinter(cmd.OutOrStdout(), format)
		if err != nil {
			return err
		}

		_, err = catRows(r, p, limit, strict || cfg.Codec.Strict, logger)
		if closeErr := p.Close(); err == nil {
			err = closeErr
		}
		return err
	},
}

// catRows prints up to limit rows (all when limit is not positive).
func catRows(r *rsv.Reader, p *rowPrinter, limit int64, strict bool, logger zerolog.Logger) (scanStats, error) {
	var printed int64
	stats, err := scanRows(r, strict, logger, func(row int64, fields []codec.Field) error {
		if limit > 0 && printed >= limit {
			return errStopScan
		}
		printed++
		return p.Print(row, fields)
	})
	if errors.Is(err, errStopScan) {
		err = nil
	}
	return stats, err
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().String("compression", "", "Compression of the input (none, zstd, gzip, snappy)")
	catCmd.Flags().Int64P("limit", "n", 0, "Print at most this many rows")
	catCmd.Flags().Bool("strict", false, "Also reject rows holding invalid UTF-8")
}
