// Package notifiers holds one handler per event type. Handlers translate a
// typed payload into notification requests and hand them to the channel
// orchestrator, fanning out through the bulk dispatcher when an event has
// many recipients.
package notifiers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/authclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/bulk"
	"github.com/amesa-systems/amesa-notify/notify/internal/emailclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/lotteryclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
	"github.com/amesa-systems/amesa-notify/notify/internal/orchestrator"
	"github.com/amesa-systems/amesa-notify/notify/internal/router"
)

// LotteryClient is the read-only view of the lottery service.
type LotteryClient interface {
	GetDrawParticipants(ctx context.Context, drawID string) ([]string, error)
	GetHouseInfo(ctx context.Context, houseID string) (*lotteryclient.HouseInfo, error)
	GetHouseCreatorID(ctx context.Context, houseID string) (string, error)
	GetHouseFavoriteUserIDs(ctx context.Context, houseID string) ([]string, error)
}

// AuthClient is the read-only view of the auth service.
type AuthClient interface {
	GetUserInfo(ctx context.Context, userID string) (*authclient.UserInfo, error)
	GetActiveUserIDs(ctx context.Context) ([]string, error)
	GetUserIDsBySegment(ctx context.Context, segment string) ([]string, error)
}

// Scope carries the collaborators every handler may use.
type Scope struct {
	Email        emailclient.Sender
	Orchestrator orchestrator.Orchestrator
	Lottery      LotteryClient
	Auth         AuthClient
	Bulk         *bulk.Dispatcher
	Logger       *logging.Logger
}

// HandlerError wraps a failure that must reach the idempotency gate.
type HandlerError struct {
	Type     string
	Critical bool
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handle %s: %v", e.Type, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// handle adapts a payload handler to the router and applies the
// criticality policy for detailType. Non-critical failures are logged and
// swallowed unless the per-event context is already done.
func handle[T any](s *Scope, detailType string, fn func(ctx context.Context, payload T) error) router.HandlerFunc[T] {
	critical := IsCritical(detailType)
	return func(ctx context.Context, env *models.Envelope, payload T) error {
		err := fn(ctx, payload)
		if err == nil {
			return nil
		}

		metrics.HandlerFailures.WithLabelValues(detailType, strconv.FormatBool(critical)).Inc()

		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		if critical || ctx.Err() != nil {
			return &HandlerError{Type: detailType, Critical: critical, Err: err}
		}

		s.Logger.WarnContext(ctx, "non-critical handler failed",
			logging.DetailType(detailType),
			logging.Error(err),
		)
		return nil
	}
}

// FilterRecipients drops empty and nil-UUID ids and removes duplicates,
// keeping first-seen order.
func FilterRecipients(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || isNilUUID(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isNilUUID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed == uuid.Nil
}

// send delivers req to one recipient. A missing recipient is logged and
// skipped; redelivery would not fix the payload.
func (s *Scope) send(ctx context.Context, recipientID string, req *models.NotificationRequest, channels ...string) error {
	if strings.TrimSpace(recipientID) == "" || isNilUUID(recipientID) {
		s.Logger.WarnContext(ctx, "skipping notification without recipient", "type", req.Type)
		return nil
	}
	if len(channels) == 0 {
		channels = models.DefaultChannels()
	}
	result, err := s.Orchestrator.SendMultiChannel(ctx, recipientID, req, channels)
	if err != nil {
		return err
	}
	if result != nil && result.FailureCount > 0 {
		s.Logger.WarnContext(ctx, "some channels failed",
			logging.UserID(recipientID),
			logging.Channels(channels),
			logging.Count(result.FailureCount),
		)
	}
	return nil
}

// fanOut sends one freshly built request per recipient through the bulk
// dispatcher. Per-recipient failures are isolated; only cancellation of ctx
// is returned.
func (s *Scope) fanOut(ctx context.Context, name string, recipients []string, build func(userID string) *models.NotificationRequest, channels ...string) error {
	ids := FilterRecipients(recipients)
	if len(ids) == 0 {
		s.Logger.InfoContext(ctx, "no recipients for bulk notification", "batch", name)
		return nil
	}
	if len(channels) == 0 {
		channels = models.DefaultChannels()
	}

	report, err := bulk.Dispatch(ctx, s.Bulk, name, ids, func(ctx context.Context, userID string) error {
		_, err := s.Orchestrator.SendMultiChannel(ctx, userID, build(userID), channels)
		return err
	})
	s.Logger.InfoContext(ctx, "bulk notification finished",
		"batch", name,
		logging.Count(report.Succeeded),
		"failed", report.Failed,
		"dropped", report.Dropped,
	)
	return err
}

func newRequest(t models.NotificationType, title, message string) *models.NotificationRequest {
	return &models.NotificationRequest{
		Type:     t,
		Title:    title,
		Message:  message,
		Language: models.DefaultLanguage,
	}
}

// orDefault returns v, or fallback when v is blank.
func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

const timeLayout = "2006-01-02 15:04"
