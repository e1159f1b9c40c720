package memorystorage

import (
	"github.com/patric-chuzhbe/linkfy/internal/db/jsondb"
	"github.com/patric-chuzhbe/linkfy/internal/models"
)

// MemoryStorage is the in-process link store used when nothing else is configured.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				UserLinks: map[string][]models.LinkRecord{},
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}
