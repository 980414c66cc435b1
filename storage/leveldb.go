package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB stores values in a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Has(ctx context.Context, key string) (bool, error) {
	return l.db.Has([]byte(key), nil)
}

func (l *LevelDB) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (l *LevelDB) Put(ctx context.Context, key string, content []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, key)
	}
	return l.db.Put([]byte(key), content, nil)
}

func (l *LevelDB) Delete(ctx context.Context, key string) error {
	ok, err := l.db.Has([]byte(key), nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return l.db.Delete([]byte(key), nil)
}

// Keys returns all keys in the database in sorted order.
func (l *LevelDB) Keys(ctx context.Context) ([]string, error) {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
