// Package events defines the detail-type tags delivered on the bus and the
// typed payload carried in each envelope's detail.
package events

// Auth service events.
const (
	UserCreated                = "UserCreated"
	EmailVerificationRequested = "EmailVerificationRequested"
	PasswordResetRequested     = "PasswordResetRequested"
	UserEmailVerified          = "UserEmailVerified"
	UserLogin                  = "UserLogin"
	UserUpdated                = "UserUpdated"
	UserVerified               = "UserVerified"
	ProfileUpdated             = "ProfileUpdated"
	PreferencesUpdated         = "PreferencesUpdated"
	AccountLocked              = "AccountLocked"
	AccountUnlocked            = "AccountUnlocked"
	FailedLoginAttempts        = "FailedLoginAttempts"
	NewDeviceLogin             = "NewDeviceLogin"
	NewLocationLogin           = "NewLocationLogin"
	TwoFactorEnabled           = "TwoFactorEnabled"
	TwoFactorDisabled          = "TwoFactorDisabled"
	PasswordChanged            = "PasswordChanged"
	EmailChanged               = "EmailChanged"
	PhoneVerified              = "PhoneVerified"
	SuspiciousActivity         = "SuspiciousActivity"
)

// Lottery service events.
const (
	TicketPurchased           = "TicketPurchased"
	TicketRefunded            = "TicketRefunded"
	LotteryDrawWinnerSelected = "LotteryDrawWinnerSelected"
	LotteryDrawCompleted      = "LotteryDrawCompleted"
	LotteryDrawStarting       = "LotteryDrawStarting"
	LotteryDrawStarted        = "LotteryDrawStarted"
	LotteryEnded              = "LotteryEnded"
	LotteryResultCreated      = "LotteryResultCreated"
	PrizeClaimed              = "PrizeClaimed"
	PrizeDelivered            = "PrizeDelivered"
	HouseCreated              = "HouseCreated"
	HouseUpdated              = "HouseUpdated"
	FavoriteAdded             = "FavoriteAdded"
	FavoriteRemoved           = "FavoriteRemoved"
)

// Payment service events.
const (
	PaymentInitiated = "PaymentInitiated"
	PaymentCompleted = "PaymentCompleted"
	PaymentFailed    = "PaymentFailed"
	PaymentRefunded  = "PaymentRefunded"
	PaymentDisputed  = "PaymentDisputed"
)

// Content and platform events.
const (
	ContentPublished   = "ContentPublished"
	PromotionCreated   = "PromotionCreated"
	SystemAnnouncement = "SystemAnnouncement"
)

// Source identifiers trusted by default.
const (
	SourceAuth         = "amesa.auth"
	SourceLottery      = "amesa.lottery"
	SourcePayment      = "amesa.payment"
	SourceContent      = "amesa.content"
	SourceNotification = "amesa.notification-service"
)

// DefaultSources returns the default allow-list.
func DefaultSources() []string {
	return []string{SourceAuth, SourceLottery, SourcePayment, SourceContent, SourceNotification}
}
