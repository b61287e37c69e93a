// Package storage persists encoded values in a pebble database under KSUID
// keys, so documents and trace chains can be stored and replayed later.
package storage

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/query"
)

// Errors
var (
	ErrNotFound   = errors.New("storage: value not found")
	ErrCorrupted  = errors.New("storage: entry corrupted")
	ErrNotAChain  = errors.New("storage: stored value is not a trace chain")
	ErrAbsentRoot = errors.New("storage: stored document is absent")
)

// Options configures a ValueStore.
type Options struct {
	// SyncWrites makes every write durable before it returns.
	SyncWrites bool
	Logger     zerolog.Logger
	// Now is the clock used to stamp entries.
	Now func() time.Time
}

// ValueStore stores codec values keyed by KSUID.
type ValueStore struct {
	db    *pebble.DB
	codec *codec.Codec
	write *pebble.WriteOptions
	log   zerolog.Logger
	now   func() time.Time
}

// Open opens or creates the store at path. c encodes and decodes values.
func Open(path string, c *codec.Codec, opts Options) (*ValueStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open value store at %s", path)
	}

	s := &ValueStore{
		db:    db,
		codec: c,
		write: pebble.NoSync,
		log:   opts.Logger,
		now:   opts.Now,
	}
	if opts.SyncWrites {
		s.write = pebble.Sync
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Put stores v under a new id.
func (s *ValueStore) Put(v codec.Value) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.set(id, v); err != nil {
		return ksuid.Nil, err
	}
	s.log.Debug().Str("id", id.String()).Str("type", codec.TypeName(v)).Msg("value stored")
	return id, nil
}

// Update overwrites the value stored under id.
func (s *ValueStore) Update(id ksuid.KSUID, v codec.Value) error {
	if _, err := s.GetEntry(id); err != nil {
		return err
	}
	return s.set(id, v)
}

func (s *ValueStore) set(id ksuid.KSUID, v codec.Value) error {
	frame, err := s.codec.Encode(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", codec.TypeName(v))
	}
	entry, err := NewEntry(frame, s.now())
	if err != nil {
		return err
	}
	data, err := entry.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.db.Set(id.Bytes(), data, s.write); err != nil {
		return errors.Wrapf(err, "write %s", id)
	}
	return nil
}

// GetEntry returns the raw entry stored under id.
func (s *ValueStore) GetEntry(id ksuid.KSUID) (*Entry, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", id)
	}
	defer closer.Close()

	entry, err := UnmarshalEntry(data)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %s", id)
	}
	return entry, nil
}

// Get decodes the value stored under id.
func (s *ValueStore) Get(id ksuid.KSUID) (codec.Value, error) {
	entry, err := s.GetEntry(id)
	if err != nil {
		return nil, err
	}
	v, err := s.codec.Decode(entry.Frame)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", id)
	}
	return v, nil
}

// Delete removes id. Deleting a missing id is not an error.
func (s *ValueStore) Delete(id ksuid.KSUID) error {
	return s.db.Delete(id.Bytes(), s.write)
}

// IDs returns every stored id in key order, which is creation order.
func (s *ValueStore) IDs() ([]ksuid.KSUID, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			s.log.Warn().Err(err).Msg("skipping key that is not a ksuid")
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Replay runs the chain stored under chainID against the document stored
// under docID. When the chain succeeds and save is set, the changed
// document is written back under docID.
func (s *ValueStore) Replay(ctx context.Context, engine *query.Engine, chainID, docID ksuid.KSUID, save bool) (query.Outcome, error) {
	stored, err := s.Get(chainID)
	if err != nil {
		return query.Outcome{FailedAt: -1}, err
	}
	head, ok := stored.(query.Node)
	if !ok {
		return query.Outcome{FailedAt: -1}, errors.Wrapf(ErrNotAChain, "%s holds %s", chainID, codec.TypeName(stored))
	}

	root, err := s.Get(docID)
	if err != nil {
		return query.Outcome{FailedAt: -1}, err
	}
	if root == nil {
		return query.Outcome{FailedAt: -1}, errors.Wrapf(ErrAbsentRoot, "%s", docID)
	}

	out, err := engine.Execute(ctx, root, head)
	if err != nil {
		return out, err
	}
	if save && out.Result.OK {
		if err := s.set(docID, root); err != nil {
			return out, err
		}
	}

	s.log.Info().
		Str("chain", chainID.String()).
		Str("document", docID.String()).
		Bool("ok", out.Result.OK).
		Int("steps", out.Steps).
		Bool("saved", save && out.Result.OK).
		Msg("chain replayed")
	return out, nil
}

// Close closes the underlying database.
func (s *ValueStore) Close() error {
	return s.db.Close()
}
