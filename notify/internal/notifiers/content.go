package notifiers

import (
	"context"
	"fmt"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

func (s *Scope) contentPublished(ctx context.Context, e events.ContentPublishedEvent) error {
	users, err := s.Auth.GetActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("active users: %w", err)
	}
	message := fmt.Sprintf("New content: %s", e.Title)
	return s.fanOut(ctx, events.ContentPublished, users, func(string) *models.NotificationRequest {
		req := newRequest(models.TypeContentPublished, "New Content Available", message)
		req.Data = map[string]interface{}{"contentId": e.ContentID, "slug": e.Slug}
		return req
	})
}

func (s *Scope) promotionCreated(ctx context.Context, e events.PromotionCreatedEvent) error {
	users, err := s.Auth.GetActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("active users: %w", err)
	}
	message := fmt.Sprintf("New promotion code: %s - Save $%.2f!", e.Code, e.DiscountAmount)
	return s.fanOut(ctx, events.PromotionCreated, users, func(string) *models.NotificationRequest {
		req := newRequest(models.TypePromotionCreated, "New Promotion Available", message)
		req.Data = map[string]interface{}{"promotionId": e.PromotionID, "code": e.Code}
		return req
	})
}

// systemAnnouncement targets explicit users first, then a segment, then
// every active user.
func (s *Scope) systemAnnouncement(ctx context.Context, e events.SystemAnnouncementEvent) error {
	var (
		targets []string
		err     error
	)
	switch {
	case len(e.TargetUserIDs) > 0:
		targets = e.TargetUserIDs
	case e.TargetUserSegment != "":
		targets, err = s.Auth.GetUserIDsBySegment(ctx, e.TargetUserSegment)
	default:
		targets, err = s.Auth.GetActiveUserIDs(ctx)
	}
	if err != nil {
		return fmt.Errorf("announcement targets: %w", err)
	}

	s.Logger.InfoContext(ctx, "dispatching system announcement",
		"announcement_id", e.AnnouncementID,
		logging.Count(len(targets)),
	)
	return s.fanOut(ctx, events.SystemAnnouncement, targets, func(string) *models.NotificationRequest {
		req := newRequest(models.TypeSystemAnnouncement, e.Title, e.Message)
		req.Data = map[string]interface{}{"announcementId": e.AnnouncementID}
		if e.Severity != "" {
			req.Data["severity"] = e.Severity
		}
		return req
	})
}
