package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/events"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

// validID reports whether id can address a stored record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// lookupErr turns a missing row into a NotFound for resource and passes other errors through.
func lookupErr(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

func actorOf(p *auth.Principal) events.Actor {
	return events.Actor{UserID: p.ID(), Role: p.Role()}
}

// publish emits event and logs handler failures. Publishing never fails the caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("issue_id", event.IssueID),
			zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
