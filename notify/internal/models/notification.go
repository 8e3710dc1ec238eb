package models

import "time"

// Delivery channels understood by the channel orchestrator.
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelWebPush = "webpush"
	ChannelPush    = "push"
)

// DefaultChannels is used by handlers that do not pick channels explicitly.
func DefaultChannels() []string {
	return []string{ChannelEmail, ChannelWebPush}
}

// DefaultLanguage is applied when a request does not name one.
const DefaultLanguage = "en"

// NotificationType is the snake_case code the orchestrator uses to look up
// templates and user preferences.
type NotificationType string

const (
	TypeTicketPurchased       NotificationType = "ticket_purchased"
	TypeTicketRefunded        NotificationType = "ticket_refunded"
	TypePaymentInitiated      NotificationType = "payment_initiated"
	TypePaymentCompleted      NotificationType = "payment_completed"
	TypePaymentFailed         NotificationType = "payment_failed"
	TypePaymentRefunded       NotificationType = "payment_refunded"
	TypePaymentDisputed       NotificationType = "payment_disputed"
	TypeLotteryWinnerSelected NotificationType = "lottery_winner_selected"
	TypeLotteryDrawCompleted  NotificationType = "lottery_draw_completed"
	TypeLotteryDrawStarting   NotificationType = "lottery_draw_starting"
	TypeLotteryDrawStarted    NotificationType = "lottery_draw_started"
	TypeLotteryEnded          NotificationType = "lottery_ended"
	TypeHouseCreated          NotificationType = "house_created"
	TypeHouseUpdated          NotificationType = "house_updated"
	TypeFavoriteAdded         NotificationType = "favorite_added"
	TypeFavoriteRemoved       NotificationType = "favorite_removed"
	TypeContentPublished      NotificationType = "content_published"
	TypePromotionCreated      NotificationType = "promotion_created"
	TypeSystemAnnouncement    NotificationType = "system_announcement"
	TypeAccountLocked         NotificationType = "account_locked"
	TypeAccountUnlocked       NotificationType = "account_unlocked"
	TypeFailedLoginAttempts   NotificationType = "failed_login_attempts"
	TypeNewDeviceLogin        NotificationType = "new_device_login"
	TypeNewLocationLogin      NotificationType = "new_location_login"
	TypeTwoFactorEnabled      NotificationType = "two_factor_enabled"
	TypeTwoFactorDisabled     NotificationType = "two_factor_disabled"
	TypePasswordChanged       NotificationType = "password_changed"
	TypeEmailChanged          NotificationType = "email_changed"
	TypePhoneVerified         NotificationType = "phone_verified"
	TypeEmailVerified         NotificationType = "email_verified"
	TypeSuspiciousActivity    NotificationType = "suspicious_activity"
	TypeProfileUpdated        NotificationType = "profile_updated"
	TypePreferencesUpdated    NotificationType = "preferences_updated"
)

// NotificationRequest is the payload handed to the channel orchestrator.
// Handlers build one per recipient; values are never shared across
// concurrent fan-out units.
type NotificationRequest struct {
	RecipientID string                 `json:"userId"`
	Type        NotificationType       `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Channels    []string               `json:"channels"`
	Language    string                 `json:"language"`
}

// ChannelDeliveryResult is the orchestrator's per-channel outcome.
type ChannelDeliveryResult struct {
	Channel      string   `json:"channel"`
	Success      bool     `json:"success"`
	ExternalID   string   `json:"externalId,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
}

// OrchestrationResult aggregates a SendMultiChannel call.
type OrchestrationResult struct {
	NotificationID  string                  `json:"notificationId"`
	DeliveryResults []ChannelDeliveryResult `json:"deliveryResults"`
	SuccessCount    int                     `json:"successCount"`
	FailureCount    int                     `json:"failureCount"`
}

// DeliveryStatus describes a single channel delivery tracked by the orchestrator.
type DeliveryStatus struct {
	ID             string     `json:"id"`
	NotificationID string     `json:"notificationId"`
	Channel        string     `json:"channel"`
	Status         string     `json:"status"`
	ExternalID     string     `json:"externalId,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	RetryCount     int        `json:"retryCount"`
	Cost           *float64   `json:"cost,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
