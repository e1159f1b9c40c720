// Package service loads a signed-in user's previously shortened links and
// turns them into the rows the links table shows.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/linkfy/internal/logger"
	"github.com/patric-chuzhbe/linkfy/internal/models"
	"github.com/patric-chuzhbe/linkfy/internal/session"
)

type linksKeeper interface {
	GetUserLinks(ctx context.Context, email string) ([]models.LinkRecord, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	linksKeeper
	pinger
}

// ErrRowNotFound is returned by FindRow when the code is not in the user's listing.
var ErrRowNotFound = errors.New("link not found in the user's listing")

// ErrSignedOut is returned by FindRow when the session cannot see any links.
var ErrSignedOut = errors.New("no signed-in session")

// Service is the links loader.
type Service struct {
	db storage
}

func New(db storage) *Service {
	return &Service{db: db}
}

// Load fetches the session's links once. Signed-out sessions, empty
// collections and failures all produce a SignOut listing; failures are also
// returned so callers can log them. The store is not queried at all unless
// the session is logged in with an email.
func (s *Service) Load(ctx context.Context, sess session.Session) (models.Listing, error) {
	signedOut := models.Listing{Visibility: models.SignOut}

	if !sess.Active() {
		return signedOut, nil
	}

	records, err := s.db.GetUserLinks(ctx, sess.Email)
	if err != nil {
		return signedOut, fmt.Errorf("loading links of %s: %w", sess.Email, err)
	}

	if len(records) == 0 {
		return signedOut, nil
	}

	for _, record := range records {
		logger.Log.Debugw("link record fetched", "email", sess.Email, "record", record)
		if err := record.Validate(); err != nil {
			return signedOut, fmt.Errorf("link %q of %s: %w", record.Code, sess.Email, err)
		}
	}

	codes := funk.Map(records, func(record models.LinkRecord) string { return record.Code }).([]string)
	if len(funk.UniqString(codes)) != len(codes) {
		return signedOut, fmt.Errorf("links of %s: %w: duplicate codes", sess.Email, models.ErrInvalidRecord)
	}

	return models.Listing{
		Visibility: models.SignInData,
		Rows:       funk.Map(records, models.LinkRecord.ToDisplayRow).([]models.DisplayRow),
	}, nil
}

// FindRow loads the session's listing and returns the row with the given code.
func (s *Service) FindRow(ctx context.Context, sess session.Session, code string) (models.DisplayRow, error) {
	if !sess.Active() {
		return models.DisplayRow{}, ErrSignedOut
	}

	listing, err := s.Load(ctx, sess)
	if err != nil {
		return models.DisplayRow{}, err
	}

	for _, row := range listing.Rows {
		if row.ID == code {
			return row, nil
		}
	}

	return models.DisplayRow{}, ErrRowNotFound
}

// Ping checks the health of the link store.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
