// Package diskstore implements the flat-file persistence layer of
// spec.md §6: two directories under the node's base path, blocks/ (one
// file per height, named by a 16-hex zero-padded index, holding a
// serialized block) and mined/ (one file per locally-mined block hash,
// holding the hex-encoded rand that produced it).
//
// This replaces the teacher's BadgerDB-backed BlockStore
// (pkg/core/blockchain/store.go) entirely: spec.md's persistence model
// is an append-only, re-ingestible block log rather than a keyed
// database, so there is no KV engine here, just os.WriteFile/ReadDir
// over two directories. Loading is the caller's job (pkg/node replays
// each decoded block through chain.Store.Handle, the same entry point a
// network-delivered block goes through) — this package only knows how
// to encode/decode/enumerate files.
package diskstore

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ubilog/ubilog/pkg/ubilog"
	"github.com/ubilog/ubilog/pkg/wire"
)

// Store is the flat-file layout rooted at BaseDir.
type Store struct {
	BaseDir string
}

// New returns a Store rooted at baseDir, creating the blocks/ and
// mined/ subdirectories if they do not already exist.
func New(baseDir string) (*Store, error) {
	s := &Store{BaseDir: baseDir}
	if err := os.MkdirAll(s.blocksDir(), 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.minedDir(), 0o755); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) blocksDir() string { return filepath.Join(s.BaseDir, "blocks") }
func (s *Store) minedDir() string  { return filepath.Join(s.BaseDir, "mined") }

// blockFilename is the 16-hex zero-padded index filename for a block at
// the given chain height.
func blockFilename(height uint64) string {
	return fmt.Sprintf("%016x", height)
}

// SaveChain writes the given genesis-first chain into blocks/, one file
// per height, overwriting the files for heights 0..len(chain)-1. Files
// for greater heights left by an earlier, longer save are not removed.
// Called by the node's saver task (0.033Hz) with genesis followed by
// chain.Store.GetLongestChain().
func (s *Store) SaveChain(chain []ubilog.Block) error {
	for height, b := range chain {
		path := filepath.Join(s.blocksDir(), blockFilename(uint64(height)))
		if err := os.WriteFile(path, wire.EncodeBlock(b), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// SaveMined records that locally mining hash produced the given rand
// value, under mined/<64-hex-hash>.
func (s *Store) SaveMined(hash ubilog.Hash, rand uint64) error {
	path := filepath.Join(s.minedDir(), hash.Hex())
	content := fmt.Sprintf("%016x", rand)
	return os.WriteFile(path, []byte(content), 0o644)
}

// LoadChain reads every file under blocks/ in filename order (which,
// given the zero-padded hex naming, is also height order) and decodes
// each into a block. The caller is expected to feed these, in order,
// through chain.Store.Handle(b, now) with now set to the current
// wall-clock time — loading never backdates ingestion.
func (s *Store) LoadChain() ([]ubilog.Block, error) {
	entries, err := os.ReadDir(s.blocksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	blocks := make([]ubilog.Block, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.blocksDir(), entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("diskstore: reading %s: %w", entry.Name(), err)
		}
		b, err := wire.DecodeBlock(data)
		if err != nil {
			return nil, fmt.Errorf("diskstore: decoding %s: %w", entry.Name(), err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// LoadMined reads every file under mined/ into a hash -> rand map, for
// tools that need to recover a locally-mined block's nonce (e.g.
// diagnostics); the node itself never needs this at startup.
func (s *Store) LoadMined() (map[ubilog.Hash]uint64, error) {
	entries, err := os.ReadDir(s.minedDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make(map[ubilog.Hash]uint64, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		h, err := ubilog.HashFromHex(entry.Name())
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.minedDir(), entry.Name()))
		if err != nil {
			return nil, err
		}
		rand, err := hex.DecodeString(string(data))
		if err != nil || len(rand) != 8 {
			continue
		}
		var v uint64
		for _, b := range rand {
			v = (v << 8) | uint64(b)
		}
		out[h] = v
	}
	return out, nil
}
