// Package firestoredb reads user links from Google Cloud Firestore, where every
// user owns a top-level collection named after their email and every document
// carries the code, originalURL and date fields of one shortened link.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/patric-chuzhbe/linkfy/internal/logger"
	"github.com/patric-chuzhbe/linkfy/internal/models"
)

const (
	fieldCode        = "code"
	fieldOriginalURL = "originalURL"
	fieldDate        = "date"
)

// FirestoreDB is the hosted document store backend.
type FirestoreDB struct {
	client            *firestore.Client
	connectionTimeout time.Duration
}

// ErrInvalidCollection is returned for emails that cannot name a collection.
var ErrInvalidCollection = errors.New("email cannot be used as a collection name")

// New connects to the project. An empty credentialsFile falls back to the
// application default credentials; FIRESTORE_EMULATOR_HOST is honoured by the client.
func New(
	ctx context.Context,
	projectID string,
	credentialsFile string,
	connectionTimeout time.Duration,
) (*FirestoreDB, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/firestoredb/firestoredb.go/New(): error while `firestore.NewClient()` calling: %w",
				err,
			)
	}

	return &FirestoreDB{
		client:            client,
		connectionTimeout: connectionTimeout,
	}, nil
}

// GetUserLinks reads every document of the user's collection. A document that
// lacks a required field fails the whole read with models.ErrInvalidRecord.
func (db *FirestoreDB) GetUserLinks(ctx context.Context, email string) ([]models.LinkRecord, error) {
	collection, err := db.collection(email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	documents := collection.Documents(ctx)
	defer documents.Stop()

	result := []models.LinkRecord{}
	for {
		snapshot, err := documents.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		record, err := decodeDocument(snapshot.Data())
		if err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", email, snapshot.Ref.ID, err)
		}
		result = append(result, record)
	}

	return result, nil
}

// SaveUserLink writes the record as the document named after its code.
func (db *FirestoreDB) SaveUserLink(ctx context.Context, email string, record models.LinkRecord) error {
	collection, err := db.collection(email)
	if err != nil {
		return err
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err = collection.Doc(record.Code).Set(ctx, encodeDocument(record))

	return err
}

// Ping lists at most one root collection to check connectivity and credentials.
func (db *FirestoreDB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err := db.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}

	return nil
}

func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

func (db *FirestoreDB) collection(email string) (*firestore.CollectionRef, error) {
	if email == "" || strings.Contains(email, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, email)
	}

	return db.client.Collection(email), nil
}

func (db *FirestoreDB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.connectionTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, db.connectionTimeout)
}

func encodeDocument(record models.LinkRecord) map[string]interface{} {
	return map[string]interface{}{
		fieldCode:        record.Code,
		fieldOriginalURL: record.OriginalURL,
		fieldDate:        record.Date,
	}
}

// decodeDocument turns loosely typed document data into a LinkRecord.
// Dates may be stored either as strings or as Firestore timestamps.
func decodeDocument(data map[string]interface{}) (models.LinkRecord, error) {
	logger.Log.Debugw("link document fetched", "data", data)

	code, err := stringField(data, fieldCode)
	if err != nil {
		return models.LinkRecord{}, err
	}

	originalURL, err := stringField(data, fieldOriginalURL)
	if err != nil {
		return models.LinkRecord{}, err
	}

	var date string
	switch value := data[fieldDate].(type) {
	case string:
		date = value
	case time.Time:
		date = value.UTC().Format(time.RFC3339Nano)
	case nil:
		return models.LinkRecord{}, fmt.Errorf("%w: missing field %q", models.ErrInvalidRecord, fieldDate)
	default:
		return models.LinkRecord{}, fmt.Errorf("%w: field %q has type %T", models.ErrInvalidRecord, fieldDate, value)
	}

	record := models.LinkRecord{
		Code:        code,
		OriginalURL: originalURL,
		Date:        date,
	}

	return record, record.Validate()
}

func stringField(data map[string]interface{}, name string) (string, error) {
	raw, found := data[name]
	if !found || raw == nil {
		return "", fmt.Errorf("%w: missing field %q", models.ErrInvalidRecord, name)
	}

	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q has type %T", models.ErrInvalidRecord, name, raw)
	}

	return value, nil
}
