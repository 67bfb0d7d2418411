// Package boltdb implements the ability to read and write blocks to a
// bbolt key/value database, one key per block index.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/storage"
	bbolt "go.etcd.io/bbolt"
)

// bucketName is the bucket holding every block.
var bucketName = []byte("blocks")

// BoltDB represents the serialization implementation for reading and
// storing blocks in a bbolt database. This implements the
// storage.Serializer interface.
type BoltDB struct {
	db *bbolt.DB
}

// New opens or creates the database file at the specified path.
func New(dbFile string) (*BoltDB, error) {
	db, err := bbolt.Open(dbFile, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbFile, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// Close releases the database file.
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// Write stores the block under its position in the chain. An existing
// block at the same position is replaced.
func (b *BoltDB) Write(index uint64, block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key(index), data)
	})
}

// Rewrite replaces every stored block with the specified blocks inside a
// single transaction. A failure leaves the previous chain in place.
func (b *BoltDB) Rewrite(blocks []database.Block) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}

		bucket, err := tx.CreateBucket(bucketName)
		if err != nil {
			return err
		}

		for i, block := range blocks {
			data, err := json.Marshal(block)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}

			if err := bucket.Put(key(uint64(i)), data); err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
		}

		return nil
	})
}

// GetBlock returns the block stored at the specified index.
func (b *BoltDB) GetBlock(index uint64) (database.Block, error) {
	var block database.Block

	err := b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(bucketName).Get(key(index))
		if val == nil {
			return storage.ErrNotFound
		}

		// The value is only valid for the life of the transaction.
		buf := make([]byte, len(val))
		copy(buf, val)

		return json.Unmarshal(buf, &block)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return database.Block{}, err
		}
		return database.Block{}, fmt.Errorf("block %d: %w", index, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (b *BoltDB) ForEach() storage.Iterator {
	return &boltIterator{bolt: b}
}

// Reset drops and recreates the bucket holding the blocks.
func (b *BoltDB) Reset() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

// key encodes the index big endian so the keys sort in chain order.
func key(index uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], index)
	return k[:]
}

// =============================================================================

// boltIterator represents the iteration implementation for walking
// through the blocks in the database.
type boltIterator struct {
	bolt    *BoltDB
	current uint64
	eoc     bool
}

// Next retrieves the next block from the database.
func (bi *boltIterator) Next() (database.Block, error) {
	if bi.eoc {
		return database.Block{}, storage.ErrEndOfChain
	}

	block, err := bi.bolt.GetBlock(bi.current)
	if errors.Is(err, storage.ErrNotFound) {
		bi.eoc = true
	}

	bi.current++

	return block, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
