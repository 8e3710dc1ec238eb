package events

import "time"

type ContentPublishedEvent struct {
	ContentID string `json:"contentId"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
}

type PromotionCreatedEvent struct {
	PromotionID    string  `json:"promotionId"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
}

type SystemAnnouncementEvent struct {
	AnnouncementID    string     `json:"announcementId"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Severity          string     `json:"severity,omitempty"`
	TargetUserIDs     []string   `json:"targetUserIds,omitempty"`
	TargetUserSegment string     `json:"targetUserSegment,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}
