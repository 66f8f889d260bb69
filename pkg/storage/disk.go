package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"conversation-recall/pkg/models"

	"github.com/dgraph-io/badger/v3"
)

type diskStore struct {
	db *badger.DB
}

// NewDiskStore opens a badger-backed PersonStore rooted at path. Records
// are stored as JSON keyed by person ID; name lookups scan the keyspace.
func NewDiskStore(path string) (PersonStore, func() error, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "people"))
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &diskStore{db: db}, db.Close, nil
}

func (s *diskStore) Get(idOrName string) (*models.PersonRecord, error) {
	record, err := s.getByID(idOrName)
	if err == nil {
		return record, nil
	}
	if err != ErrPersonNotFound {
		return nil, err
	}
	return s.FindByName(idOrName)
}

func (s *diskStore) getByID(id string) (*models.PersonRecord, error) {
	var record models.PersonRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return &record, nil
}

func (s *diskStore) FindByName(name string) (*models.PersonRecord, error) {
	var found *models.PersonRecord

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record models.PersonRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if strings.EqualFold(record.Name, name) {
				found = &record
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan people: %w", err)
	}
	if found == nil {
		return nil, ErrPersonNotFound
	}
	return found, nil
}

func (s *diskStore) Store(record *models.PersonRecord) error {
	return s.db.Update(func(txn *badger.Txn) error {
		merged := record
		item, err := txn.Get([]byte(record.ID))
		if err == nil {
			var existing models.PersonRecord
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			})
			if err != nil {
				return err
			}
			merged = mergeRecords(&existing, record)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal person: %w", err)
		}
		return txn.Set([]byte(record.ID), data)
	})
}

func (s *diskStore) List() ([]*models.PersonRecord, error) {
	var people []*models.PersonRecord

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record models.PersonRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			people = append(people, &record)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}
