// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package state

import (
	"context"
	"sync"

	vgcontext "code.vegaprotocol.io/marketupdates/libs/context"
	"code.vegaprotocol.io/marketupdates/logging"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var ErrStoreClosed = errors.New("state store is closed")

type frameKeyT int

const frameKey frameKeyT = iota

type entry struct {
	val     []byte
	deleted bool
}

// frame is a journal of the writes of one call. Frames nest like call
// frames: a child frame is merged into its parent on success and dropped on
// failure, the root frame is flushed to the database.
type frame struct {
	parent *frame
	writes map[string]entry
	hooks  []func()
}

func (f *frame) lookup(key string) (entry, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if e, ok := cur.writes[key]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// Store is the ledger state shared by every contract. All writes happen
// inside Atomic, and top level calls are serialized.
type Store struct {
	Config
	log *logging.Logger

	mu sync.Mutex
	db *leveldb.DB
}

// New opens the database at the configured path, or an in-memory database
// if no path is configured.
func New(log *logging.Logger, cfg Config) (*Store, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	var (
		db  *leveldb.DB
		err error
	)
	if cfg.Path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(cfg.Path, &opt.Options{
			Filter: filter.NewBloomFilter(10),
		})
	}
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open the state database")
	}

	log.Info("state store opened",
		logging.String("path", cfg.Path),
		logging.Bool("in-memory", cfg.Path == ""),
	)

	return &Store{
		Config: cfg,
		log:    log,
		db:     db,
	}, nil
}

func (s *Store) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
	s.mu.Lock()
	s.SyncWrites = cfg.SyncWrites
	s.mu.Unlock()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Atomic runs fn in a new journal frame. If fn fails, none of its writes
// and none of its AfterCommit hooks survive. The outermost frame holds the
// store lock for its whole duration and writes everything in one batch.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	parent, _ := ctx.Value(frameKey).(*frame)
	if parent == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		var tID string
		ctx, tID = vgcontext.EnsureTraceID(ctx)
		if s.log.GetLevel() == logging.DebugLevel {
			s.log.Debug("opening root frame", logging.TraceID(tID))
		}
	}

	f := &frame{
		parent: parent,
		writes: map[string]entry{},
	}
	if err := fn(context.WithValue(ctx, frameKey, f)); err != nil {
		return err
	}

	if parent != nil {
		for k, e := range f.writes {
			parent.writes[k] = e
		}
		parent.hooks = append(parent.hooks, f.hooks...)
		return nil
	}

	if len(f.writes) > 0 {
		batch := new(leveldb.Batch)
		for k, e := range f.writes {
			if e.deleted {
				batch.Delete([]byte(k))
			} else {
				batch.Put([]byte(k), e.val)
			}
		}
		if err := s.db.Write(batch, &opt.WriteOptions{Sync: bool(s.SyncWrites)}); err != nil {
			s.log.Error("couldn't commit state", logging.Error(err))
			return errors.Wrap(err, "couldn't commit state")
		}
	}
	for _, h := range f.hooks {
		h()
	}
	return nil
}

// AfterCommit registers fn to run once the outermost frame is committed.
// Outside of any frame fn runs straight away.
func (s *Store) AfterCommit(ctx context.Context, fn func()) {
	f, _ := ctx.Value(frameKey).(*frame)
	if f == nil {
		fn()
		return
	}
	f.hooks = append(f.hooks, fn)
}

// GetRaw returns the bytes stored at key as seen from the current frame.
func (s *Store) GetRaw(ctx context.Context, key []byte) ([]byte, bool, error) {
	if f, _ := ctx.Value(frameKey).(*frame); f != nil {
		if e, ok := f.lookup(string(key)); ok {
			if e.deleted {
				return nil, false, nil
			}
			return e.val, true, nil
		}
	}
	val, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if errors.Is(err, leveldb.ErrClosed) {
		return nil, false, ErrStoreClosed
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "couldn't read state")
	}
	return val, true, nil
}

// PutRaw writes the bytes at key in the current frame.
func (s *Store) PutRaw(ctx context.Context, key, val []byte) error {
	return s.write(ctx, key, entry{val: common.CopyBytes(val)})
}

// Delete removes the key in the current frame.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.write(ctx, key, entry{deleted: true})
}

func (s *Store) write(ctx context.Context, key []byte, e entry) error {
	f, _ := ctx.Value(frameKey).(*frame)
	if f == nil {
		return s.Atomic(ctx, func(ctx context.Context) error {
			return s.write(ctx, key, e)
		})
	}
	f.writes[string(key)] = e
	return nil
}

func (s *Store) Has(ctx context.Context, key []byte) (bool, error) {
	_, ok, err := s.GetRaw(ctx, key)
	return ok, err
}

// Get decodes the RLP value stored at key into v. It returns false if the
// key is not set.
func (s *Store) Get(ctx context.Context, key []byte, v interface{}) (bool, error) {
	buf, ok, err := s.GetRaw(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(buf, v); err != nil {
		return false, errors.Wrapf(err, "couldn't decode state at %x", key)
	}
	return true, nil
}

// Put RLP encodes v and stores it at key.
func (s *Store) Put(ctx context.Context, key []byte, v interface{}) error {
	buf, err := rlp.EncodeToBytes(v)
	if err != nil {
		return errors.Wrapf(err, "couldn't encode state at %x", key)
	}
	return s.PutRaw(ctx, key, buf)
}
