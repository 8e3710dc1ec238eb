package notifiers

import (
	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/router"
)

// critical lists the event types whose handler failures are retried by the
// bus. Every other registered type is best-effort.
var critical = map[string]bool{
	events.UserCreated:                true,
	events.EmailVerificationRequested: true,
	events.PasswordResetRequested:     true,
	events.UserEmailVerified:          true,
	events.AccountLocked:              true,
	events.AccountUnlocked:            true,
	events.FailedLoginAttempts:        true,
	events.TwoFactorEnabled:           true,
	events.TwoFactorDisabled:          true,
	events.PasswordChanged:            true,
	events.EmailChanged:               true,
	events.SuspiciousActivity:         true,

	events.TicketPurchased:           true,
	events.TicketRefunded:            true,
	events.LotteryDrawWinnerSelected: true,
	events.LotteryDrawCompleted:      true,
	events.LotteryResultCreated:      true,
	events.HouseCreated:              true,

	events.PaymentInitiated: true,
	events.PaymentCompleted: true,
	events.PaymentFailed:    true,
	events.PaymentRefunded:  true,
	events.PaymentDisputed:  true,

	events.SystemAnnouncement: true,
}

// IsCritical reports whether failures of detailType propagate to the gate.
func IsCritical(detailType string) bool {
	return critical[detailType]
}

// RegisterAll installs every handler on r.
func RegisterAll(r *router.Router, s *Scope) {
	// account
	router.Register(r, events.UserCreated, handle(s, events.UserCreated, s.userCreated))
	router.Register(r, events.EmailVerificationRequested, handle(s, events.EmailVerificationRequested, s.emailVerificationRequested))
	router.Register(r, events.PasswordResetRequested, handle(s, events.PasswordResetRequested, s.passwordResetRequested))
	router.Register(r, events.UserEmailVerified, handle(s, events.UserEmailVerified, s.userEmailVerified))
	router.Register(r, events.UserLogin, handle(s, events.UserLogin, s.userLogin))
	router.Register(r, events.UserUpdated, handle(s, events.UserUpdated, s.userUpdated))
	router.Register(r, events.UserVerified, handle(s, events.UserVerified, s.userVerified))
	router.Register(r, events.ProfileUpdated, handle(s, events.ProfileUpdated, s.profileUpdated))
	router.Register(r, events.PreferencesUpdated, handle(s, events.PreferencesUpdated, s.preferencesUpdated))
	router.Register(r, events.PhoneVerified, handle(s, events.PhoneVerified, s.phoneVerified))

	// security
	router.Register(r, events.AccountLocked, handle(s, events.AccountLocked, s.accountLocked))
	router.Register(r, events.AccountUnlocked, handle(s, events.AccountUnlocked, s.accountUnlocked))
	router.Register(r, events.FailedLoginAttempts, handle(s, events.FailedLoginAttempts, s.failedLoginAttempts))
	router.Register(r, events.NewDeviceLogin, handle(s, events.NewDeviceLogin, s.newDeviceLogin))
	router.Register(r, events.NewLocationLogin, handle(s, events.NewLocationLogin, s.newLocationLogin))
	router.Register(r, events.TwoFactorEnabled, handle(s, events.TwoFactorEnabled, s.twoFactorEnabled))
	router.Register(r, events.TwoFactorDisabled, handle(s, events.TwoFactorDisabled, s.twoFactorDisabled))
	router.Register(r, events.PasswordChanged, handle(s, events.PasswordChanged, s.passwordChanged))
	router.Register(r, events.EmailChanged, handle(s, events.EmailChanged, s.emailChanged))
	router.Register(r, events.SuspiciousActivity, handle(s, events.SuspiciousActivity, s.suspiciousActivity))

	// lottery
	router.Register(r, events.TicketPurchased, handle(s, events.TicketPurchased, s.ticketPurchased))
	router.Register(r, events.TicketRefunded, handle(s, events.TicketRefunded, s.ticketRefunded))
	router.Register(r, events.LotteryDrawWinnerSelected, handle(s, events.LotteryDrawWinnerSelected, s.drawWinnerSelected))
	router.Register(r, events.LotteryDrawCompleted, handle(s, events.LotteryDrawCompleted, s.drawCompleted))
	router.Register(r, events.LotteryDrawStarting, handle(s, events.LotteryDrawStarting, s.drawStarting))
	router.Register(r, events.LotteryDrawStarted, handle(s, events.LotteryDrawStarted, s.drawStarted))
	router.Register(r, events.LotteryEnded, handle(s, events.LotteryEnded, s.lotteryEnded))
	router.Register(r, events.LotteryResultCreated, handle(s, events.LotteryResultCreated, s.lotteryResultCreated))
	router.Register(r, events.PrizeClaimed, handle(s, events.PrizeClaimed, s.prizeClaimed))
	router.Register(r, events.PrizeDelivered, handle(s, events.PrizeDelivered, s.prizeDelivered))
	router.Register(r, events.HouseCreated, handle(s, events.HouseCreated, s.houseCreated))
	router.Register(r, events.HouseUpdated, handle(s, events.HouseUpdated, s.houseUpdated))
	router.Register(r, events.FavoriteAdded, handle(s, events.FavoriteAdded, s.favoriteAdded))
	router.Register(r, events.FavoriteRemoved, handle(s, events.FavoriteRemoved, s.favoriteRemoved))

	// payment
	router.Register(r, events.PaymentInitiated, handle(s, events.PaymentInitiated, s.paymentInitiated))
	router.Register(r, events.PaymentCompleted, handle(s, events.PaymentCompleted, s.paymentCompleted))
	router.Register(r, events.PaymentFailed, handle(s, events.PaymentFailed, s.paymentFailed))
	router.Register(r, events.PaymentRefunded, handle(s, events.PaymentRefunded, s.paymentRefunded))
	router.Register(r, events.PaymentDisputed, handle(s, events.PaymentDisputed, s.paymentDisputed))

	// content
	router.Register(r, events.ContentPublished, handle(s, events.ContentPublished, s.contentPublished))
	router.Register(r, events.PromotionCreated, handle(s, events.PromotionCreated, s.promotionCreated))
	router.Register(r, events.SystemAnnouncement, handle(s, events.SystemAnnouncement, s.systemAnnouncement))
}
