package api

import "github.com/ssargent/rsv/pkg/codec"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind        string
	Port        int
	APIKey      string   // empty disables authentication
	CorsOrigins []string // empty allows any origin
	MaxRowSize  int      // upper bound on a request body, in bytes
	Strict      bool     // strict decoding of request rows
	BufferSize  int      // row stream buffer size (0 = rsv.DefaultBufferSize)
}

// Row is the JSON form of an RSV row: a list of strings, with null for a
// null field.
type Row []*string

// NewRow converts decoded fields to their JSON form.
func NewRow(fields []codec.Field) Row {
	row := make(Row, len(fields))
	for i, f := range fields {
		if f.IsNull() {
			continue
		}
		v := f.String()
		row[i] = &v
	}
	return row
}

// Fields converts the row back into codec fields.
func (r Row) Fields() []codec.Field {
	fields := make([]codec.Field, len(r))
	for i, v := range r {
		if v == nil {
			fields[i] = codec.Null()
			continue
		}
		fields[i] = codec.String(*v)
	}
	return fields
}

// EncodeRequest is the body of POST /api/v1/encode
type EncodeRequest struct {
	Rows []Row `json:"rows"`
}

// RowError describes a row that failed to decode
type RowError struct {
	Row   int64  `json:"row"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// DecodeResponse is the body returned by POST /api/v1/decode
type DecodeResponse struct {
	Rows   []Row      `json:"rows"`
	Errors []RowError `json:"errors,omitempty"`
}

// StoredRow is a row kept in the row store
type StoredRow struct {
	ID     string `json:"id"`
	Fields Row    `json:"fields"`
}

// ImportResponse is returned after rows are imported into the store
type ImportResponse struct {
	Imported int64 `json:"imported"`
}

// StatsResponse is returned by GET /api/v1/stats
type StatsResponse struct {
	Rows int64 `json:"rows"`
}
