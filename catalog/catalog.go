// Package catalog persists the mapping from dataset names to their declared
// types and backing files, so callers can address datasets by name instead of
// path. Backed by Bolt, with msgpack-encoded entries.
package catalog

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	ErrNotFound      = fmt.Errorf("dataset not found in catalog")
	ErrAlreadyListed = fmt.Errorf("dataset name already in catalog")
)

var datasetsBucket = []byte("datasets")

// Entry is one catalogued dataset.
type Entry struct {
	Name    string    `msgpack:"-"`
	Type    string    `msgpack:"t"` // declared dataset type name
	Path    string    `msgpack:"p"`
	Created time.Time `msgpack:"c"`
}

type Catalog struct {
	bdb *bbolt.DB
}

type Options struct {
	IsTesting bool
}

func Open(path string, opt Options) (*Catalog, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	}

	bdb, err := bbolt.Open(path, 0o666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(datasetsBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}

	return &Catalog{bdb: bdb}, nil
}

func (c *Catalog) Close() error {
	return c.bdb.Close()
}

// Put records a dataset under its name. Names are unique; re-registering an
// existing name fails with ErrAlreadyListed.
func (c *Catalog) Put(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("catalog: empty dataset name")
	}
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return err
	}
	return c.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(datasetsBucket)
		if b.Get([]byte(e.Name)) != nil {
			return fmt.Errorf("%w: %s", ErrAlreadyListed, e.Name)
		}
		return b.Put([]byte(e.Name), data)
	})
}

func (c *Catalog) Get(name string) (Entry, error) {
	var e Entry
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(datasetsBucket).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return msgpack.Unmarshal(data, &e)
	})
	if err != nil {
		return Entry{}, err
	}
	e.Name = name
	return e, nil
}

// List returns all entries in name order.
func (c *Catalog) List() ([]Entry, error) {
	var entries []Entry
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(datasetsBucket).ForEach(func(k, v []byte) error {
			var e Entry
			if err := msgpack.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("catalog: entry %q: %w", k, err)
			}
			e.Name = string(k)
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Catalog) Delete(name string) error {
	return c.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(datasetsBucket)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}
