// Package jsondb keeps every user's link collection in a single JSON file.
// The file is read once by New and written back by Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/patric-chuzhbe/linkfy/internal/models"
)

// JSONDB is a file-backed link store keyed by the user's email.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the on-disk layout.
type CacheStruct struct {
	UserLinks map[string][]models.LinkRecord
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"UserLinks": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// New opens fileName, creating an empty database file when it does not exist.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}
	if db.Cache.UserLinks == nil {
		db.Cache.UserLinks = map[string][]models.LinkRecord{}
	}

	return db, nil
}

// GetUserLinks returns a copy of the user's collection in insertion order.
func (db *JSONDB) GetUserLinks(ctx context.Context, email string) ([]models.LinkRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored := db.Cache.UserLinks[email]
	result := make([]models.LinkRecord, len(stored))
	copy(result, stored)

	return result, nil
}

// SaveUserLink stores the record in the user's collection, replacing the one
// with the same code.
func (db *JSONDB) SaveUserLink(ctx context.Context, email string, record models.LinkRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.Cache.UserLinks == nil {
		db.Cache.UserLinks = map[string][]models.LinkRecord{}
	}

	links := db.Cache.UserLinks[email]
	for i := range links {
		if links[i].Code == record.Code {
			links[i] = record
			return nil
		}
	}
	db.Cache.UserLinks[email] = append(links, record)

	return nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache to the database file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
