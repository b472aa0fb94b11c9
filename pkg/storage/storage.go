// Package storage keeps RSV rows in a pebble database, one key per row.
//
// Keys are KSUIDs, so a scan returns rows in insertion order. Values are the
// raw row bytes, terminator included, and are validated before they are
// stored.
package storage

import (
	"bytes"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/rsv/pkg/codec"
	"github.com/ssargent/rsv/pkg/rsv"
)

var rowPrefix = []byte("row/")

// ErrRowNotFound is returned when no row is stored under an id.
var ErrRowNotFound = errors.New("row not found")

// Options configures a RowStore.
type Options struct {
	Sync   bool           // fsync every write
	Logger zerolog.Logger // defaults to a disabled logger
}

// RowStore is a pebble-backed store of RSV rows. It is safe for concurrent
// use.
type RowStore struct {
	db     *pebble.DB
	write  *pebble.WriteOptions
	logger zerolog.Logger

	mu   sync.Mutex
	last ksuid.KSUID
}

// Open opens or creates a row store in dir.
func Open(dir string, opts Options) (*RowStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open row store %s", dir)
	}

	write := pebble.NoSync
	if opts.Sync {
		write = pebble.Sync
	}

	s := &RowStore{db: db, write: write, logger: opts.Logger}
	if s.last, err = s.lastID(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// lastID returns the greatest stored id, or ksuid.Nil for an empty store.
func (s *RowStore) lastID() (ksuid.KSUID, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: rowPrefix,
		UpperBound: prefixEnd(rowPrefix),
	})
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "find last row")
	}
	defer iter.Close()

	if !iter.Last() {
		return ksuid.Nil, errors.Wrap(iter.Error(), "find last row")
	}
	id, err := ksuid.FromBytes(iter.Key()[len(rowPrefix):])
	if err != nil {
		return ksuid.Nil, errors.Wrapf(err, "corrupt row key %x", iter.Key())
	}
	return id, nil
}

// nextID returns a KSUID greater than every id handed out before it.
func (s *RowStore) nextID() ksuid.KSUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, s.last) <= 0 {
		id = s.last.Next()
	}
	s.last = id
	return id
}

func rowKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, rowPrefix...), id.Bytes()...)
}

// Append validates and stores one raw row.
func (s *RowStore) Append(row []byte) (ksuid.KSUID, error) {
	if err := codec.ValidateRow(row); err != nil {
		return ksuid.Nil, err
	}

	id := s.nextID()
	if err := s.db.Set(rowKey(id), row, s.write); err != nil {
		return ksuid.Nil, errors.Wrapf(err, "store row %s", id)
	}
	return id, nil
}

// AppendFields stores a row built from fields.
func (s *RowStore) AppendFields(fields []codec.Field) (ksuid.KSUID, error) {
	row, err := codec.AppendRow(nil, fields)
	if err != nil {
		return ksuid.Nil, err
	}
	return s.Append(row)
}

// Put encodes v as a row and stores it.
func (s *RowStore) Put(v any) (ksuid.KSUID, error) {
	row, err := codec.Marshal(v)
	if err != nil {
		return ksuid.Nil, err
	}
	return s.Append(row)
}

// Get returns the raw row stored under id.
func (s *RowStore) Get(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := s.db.Get(rowKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrRowNotFound, "row %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read row %s", id)
	}
	defer closer.Close()

	return bytes.Clone(data), nil
}

// GetInto decodes the row stored under id into v.
func (s *RowStore) GetInto(id ksuid.KSUID, v any) error {
	row, err := s.Get(id)
	if err != nil {
		return err
	}
	return codec.Unmarshal(row, v)
}

// Delete removes the row stored under id. Deleting a missing row is not an
// error.
func (s *RowStore) Delete(id ksuid.KSUID) error {
	if err := s.db.Delete(rowKey(id), s.write); err != nil {
		return errors.Wrapf(err, "delete row %s", id)
	}
	return nil
}

// Scan calls fn for every stored row in insertion order. The row slice is
// only valid during the call. Scanning stops at the first error fn returns.
func (s *RowStore) Scan(fn func(id ksuid.KSUID, row []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: rowPrefix,
		UpperBound: prefixEnd(rowPrefix),
	})
	if err != nil {
		return errors.Wrap(err, "scan rows")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key()[len(rowPrefix):])
		if err != nil {
			return errors.Wrapf(err, "corrupt row key %x", iter.Key())
		}
		if err := fn(id, iter.Value()); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Error(), "scan rows")
}

// Count returns the number of stored rows.
func (s *RowStore) Count() (int64, error) {
	var n int64
	err := s.Scan(func(ksuid.KSUID, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Import stores every row read from r in one batch. A malformed row aborts
// the import before anything is committed.
func (s *RowStore) Import(r *rsv.Reader) (int64, error) {
	batch := s.db.NewBatch()
	defer batch.Close()

	var (
		buf []byte
		n   int64
	)
	for {
		var err error
		buf, err = r.ReadRaw(buf[:0])
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if err := codec.ValidateRow(buf); err != nil {
			return 0, errors.Wrapf(err, "row %d", r.Rows())
		}
		id := s.nextID()
		if err := batch.Set(rowKey(id), buf, nil); err != nil {
			return 0, errors.Wrapf(err, "stage row %s", id)
		}
		n++
	}

	if err := batch.Commit(s.write); err != nil {
		return 0, errors.Wrap(err, "commit import")
	}
	s.logger.Info().Int64("rows", n).Msg("rows imported")
	return n, nil
}

// Export writes every stored row to w in insertion order. It does not
// flush w.
func (s *RowStore) Export(w *rsv.Writer) (int64, error) {
	var n int64
	err := s.Scan(func(id ksuid.KSUID, row []byte) error {
		fields, err := codec.SplitRow(row)
		if err != nil {
			return errors.Wrapf(err, "row %s", id)
		}
		if err := w.WriteRecord(fields); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	s.logger.Info().Int64("rows", n).Msg("rows exported")
	return n, nil
}

// Close closes the underlying database.
func (s *RowStore) Close() error {
	return errors.Wrap(s.db.Close(), "close row store")
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	end[len(end)-1]++
	return end
}
