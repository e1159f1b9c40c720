// Package actions holds the row action extension points of the links table.
package actions

import (
	"context"

	"github.com/patric-chuzhbe/linkfy/internal/logger"
	"github.com/patric-chuzhbe/linkfy/internal/models"
)

// RowActions is invoked when a row's QR-Code or Delete affordance is activated.
//
// The HTTP endpoints authenticate by the session cookie. They refuse posts
// whose Origin or Sec-Fetch-Site marks another site, but there is no CSRF
// token: an implementation that mutates the store should add one.
type RowActions interface {
	View(ctx context.Context, row models.DisplayRow) error
	Delete(ctx context.Context, row models.DisplayRow) error
}

// LoggingActions only logs the activated row; it never touches the store.
type LoggingActions struct{}

func (LoggingActions) View(ctx context.Context, row models.DisplayRow) error {
	logger.Log.Infow("View user", "id", row.ID)
	return nil
}

func (LoggingActions) Delete(ctx context.Context, row models.DisplayRow) error {
	logger.Log.Infow("Delete user", "id", row.ID)
	return nil
}

// Funcs adapts plain functions to RowActions. Nil functions fall back to LoggingActions.
type Funcs struct {
	OnView   func(ctx context.Context, row models.DisplayRow) error
	OnDelete func(ctx context.Context, row models.DisplayRow) error
}

func (f Funcs) View(ctx context.Context, row models.DisplayRow) error {
	if f.OnView == nil {
		return LoggingActions{}.View(ctx, row)
	}
	return f.OnView(ctx, row)
}

func (f Funcs) Delete(ctx context.Context, row models.DisplayRow) error {
	if f.OnDelete == nil {
		return LoggingActions{}.Delete(ctx, row)
	}
	return f.OnDelete(ctx, row)
}
