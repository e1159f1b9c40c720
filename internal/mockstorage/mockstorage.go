// Package mockstorage provides a testify-based mock of the link store
// used by the service and router tests.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/linkfy/internal/models"
)

// StorageMock is a testify mock implementing every link store method.
type StorageMock struct {
	mock.Mock
}

// GetUserLinks mocks reading the user's collection.
func (m *StorageMock) GetUserLinks(ctx context.Context, email string) ([]models.LinkRecord, error) {
	args := m.Called(ctx, email)
	links, _ := args.Get(0).([]models.LinkRecord)
	return links, args.Error(1)
}

// SaveUserLink mocks writing one record.
func (m *StorageMock) SaveUserLink(ctx context.Context, email string, record models.LinkRecord) error {
	args := m.Called(ctx, email, record)
	return args.Error(0)
}

// Ping mocks a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the store.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
