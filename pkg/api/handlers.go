package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/rsv/pkg/codec"
	"github.com/ssargent/rsv/pkg/compress"
	"github.com/ssargent/rsv/pkg/rsv"
	"github.com/ssargent/rsv/pkg/storage"
)

const (
	// ContentTypeRSV is the media type of RSV request and response bodies
	ContentTypeRSV = "application/x-rsv"

	headerCompression = "X-Rsv-Compression"
)

// Server holds the API server state
type Server struct {
	store   IRowStore
	config  ServerConfig
	metrics *Metrics
	logger  zerolog.Logger
}

// NewServer creates a new API server
func NewServer(store IRowStore, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	if config.MaxRowSize <= 0 {
		config.MaxRowSize = defaultMaxRowSize
	}
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// startMetricsUpdater refreshes the store gauges until ctx is cancelled
func (s *Server) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		s.updateStoreStats()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) updateStoreStats() {
	n, err := s.store.Count()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count stored rows")
		return
	}
	s.metrics.UpdateStoreStats(n)
}

// compression reads the algorithm from the compression query parameter
func compression(r *http.Request) (compress.Algorithm, error) {
	return compress.ParseAlgorithm(r.URL.Query().Get("compression"))
}

// body returns the request body limited to the configured size and
// decompressed as requested
func (s *Server) body(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	a, err := compression(r)
	if err != nil {
		return nil, err
	}
	return compress.NewReader(http.MaxBytesReader(w, r.Body, int64(s.config.MaxRowSize)), a)
}

// codecStatus maps a codec error onto an HTTP status
func codecStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case codec.IsDecode(err), codec.IsEncode(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleEncode turns JSON rows into an RSV body
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	a, err := compression(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req EncodeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(s.config.MaxRowSize)))
	if err := dec.Decode(&req); err != nil {
		sendError(w, fmt.Sprintf("Invalid JSON in request body: %v", err), http.StatusBadRequest)
		return
	}

	// Encode everything before the first byte is sent
	var out bytes.Buffer
	enc, err := compress.NewWriter(&out, a)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writer := rsv.NewUnbufferedWriter(enc)
	for i, row := range req.Rows {
		if err := writer.WriteRecord(row.Fields()); err != nil {
			s.metrics.RecordCodecError(err)
			sendError(w, fmt.Sprintf("row %d: %v", i+1, err), codecStatus(err))
			return
		}
	}
	if err := enc.Close(); err != nil {
		sendError(w, fmt.Sprintf("Failed to compress rows: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordRows("encode", writer.Rows())

	w.Header().Set("Content-Type", ContentTypeRSV)
	if a != compress.None {
		w.Header().Set(headerCompression, string(a))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

// handleDecode turns an RSV body into JSON rows. Malformed rows are
// reported and skipped.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, err := s.body(w, r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	reader := rsv.NewReaderSize(body, s.config.BufferSize)
	reader.SetDecodeOptions(codec.DecodeOptions{Strict: s.config.Strict})

	resp := DecodeResponse{Rows: []Row{}}
	it := rsv.Deserialize[Row](reader)
	for it.Next() {
		err := it.Err()
		if err == nil {
			resp.Rows = append(resp.Rows, it.Value())
			continue
		}
		s.metrics.RecordCodecError(err)
		if codec.IsIO(err) {
			sendError(w, fmt.Sprintf("Failed to read request body: %v", err), codecStatus(err))
			return
		}
		resp.Errors = append(resp.Errors, rowError(it.Row(), err))
	}
	s.metrics.RecordRows("decode", int64(len(resp.Rows)))

	sendSuccess(w, resp)
}

func rowError(row int64, err error) RowError {
	re := RowError{Row: row, Error: err.Error()}
	var ce *codec.Error
	if errors.As(err, &ce) {
		re.Kind = string(ce.Kind)
	}
	return re
}

// handleImport stores every row of an RSV body
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := s.body(w, r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	n, err := s.store.Import(rsv.NewReaderSize(body, s.config.BufferSize))
	if err != nil {
		s.metrics.RecordStoreOperation("import", false, time.Since(start))
		s.metrics.RecordCodecError(err)
		sendError(w, fmt.Sprintf("Failed to import rows: %v", err), codecStatus(err))
		return
	}

	s.metrics.RecordStoreOperation("import", true, time.Since(start))
	s.metrics.RecordRows("import", n)
	s.updateStoreStats()
	sendSuccess(w, ImportResponse{Imported: n})
}

// handleExport streams the row store as RSV, or as JSON with ?format=json
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.URL.Query().Get("format") == "json" {
		rows := []StoredRow{}
		err := s.store.Scan(func(id ksuid.KSUID, row []byte) error {
			fields, err := codec.SplitRow(row)
			if err != nil {
				return err
			}
			rows = append(rows, StoredRow{ID: id.String(), Fields: NewRow(fields)})
			return nil
		})
		if err != nil {
			s.metrics.RecordStoreOperation("scan", false, time.Since(start))
			sendError(w, fmt.Sprintf("Failed to list rows: %v", err), http.StatusInternalServerError)
			return
		}
		s.metrics.RecordStoreOperation("scan", true, time.Since(start))
		sendSuccess(w, rows)
		return
	}

	a, err := compression(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", ContentTypeRSV)
	if a != compress.None {
		w.Header().Set(headerCompression, string(a))
	}

	// Headers are sent with the first row; later failures can only be logged
	enc, err := compress.NewWriter(w, a)
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writer := rsv.NewWriterSize(enc, s.config.BufferSize)
	n, err := s.store.Export(writer)
	if err == nil {
		err = writer.Flush()
	}
	if closeErr := enc.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.metrics.RecordStoreOperation("export", false, time.Since(start))
		s.logger.Error().Err(err).Int64("rows", n).Msg("export failed")
		return
	}

	s.metrics.RecordStoreOperation("export", true, time.Since(start))
	s.metrics.RecordRows("export", n)
}

func (s *Server) rowID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid row id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// handleGetRow returns one stored row as JSON, or raw with ?format=rsv
func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := s.rowID(w, r)
	if !ok {
		return
	}

	row, err := s.store.Get(id)
	if err != nil {
		s.metrics.RecordStoreOperation("get", false, time.Since(start))
		if errors.Is(err, storage.ErrRowNotFound) {
			sendError(w, "Row not found", http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to get row: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordStoreOperation("get", true, time.Since(start))

	if r.URL.Query().Get("format") == "rsv" {
		w.Header().Set("Content-Type", ContentTypeRSV)
		_, _ = w.Write(row)
		return
	}

	fields, err := codec.SplitRow(row)
	if err != nil {
		sendError(w, fmt.Sprintf("Stored row is corrupt: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, StoredRow{ID: id.String(), Fields: NewRow(fields)})
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := s.rowID(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(id); err != nil {
		s.metrics.RecordStoreOperation("delete", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to delete row: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordStoreOperation("delete", true, time.Since(start))
	s.updateStoreStats()
	sendSuccess(w, map[string]string{"message": "Row deleted successfully"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to count rows: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.UpdateStoreStats(n)
	sendSuccess(w, StatsResponse{Rows: n})
}
