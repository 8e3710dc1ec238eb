package notifiers

import (
	"context"
	"fmt"
	"strings"

	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

const secureYourAccount = "If this wasn't you, please secure your account immediately."

func (s *Scope) accountLocked(ctx context.Context, e events.AccountLockedEvent) error {
	message := fmt.Sprintf("Your account has been locked. Reason: %s. ", e.LockReason)
	if e.LockedUntil != nil {
		message += fmt.Sprintf("It will be unlocked on %s UTC.", e.LockedUntil.UTC().Format(timeLayout))
	} else {
		message += "Please contact support to unlock your account."
	}
	req := newRequest(models.TypeAccountLocked, "Account Locked", message)
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS, models.ChannelWebPush)
}

func (s *Scope) accountUnlocked(ctx context.Context, e events.AccountUnlockedEvent) error {
	message := strings.TrimSpace("Your account has been unlocked. " + e.UnlockReason)
	req := newRequest(models.TypeAccountUnlocked, "Account Unlocked", message)
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) failedLoginAttempts(ctx context.Context, e events.FailedLoginAttemptsEvent) error {
	req := newRequest(models.TypeFailedLoginAttempts, "Multiple Failed Login Attempts",
		fmt.Sprintf("We detected %d failed login attempts from IP %s on %s UTC. %s",
			e.AttemptCount, e.IPAddress, e.LastAttemptAt.UTC().Format(timeLayout), secureYourAccount))
	req.Data = map[string]interface{}{"attemptCount": e.AttemptCount, "ipAddress": e.IPAddress}
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}

func (s *Scope) newDeviceLogin(ctx context.Context, e events.NewDeviceLoginEvent) error {
	location := ""
	if e.Location != "" {
		location = " from " + e.Location
	}
	req := newRequest(models.TypeNewDeviceLogin, "New Device Login Detected",
		fmt.Sprintf("A login was detected from a new device%s (%s) from IP %s. %s",
			location, e.DeviceName, e.IPAddress, secureYourAccount))
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}

func (s *Scope) newLocationLogin(ctx context.Context, e events.NewLocationLoginEvent) error {
	location := e.Location
	if e.City != "" && e.Country != "" {
		location = e.City + ", " + e.Country
	}
	req := newRequest(models.TypeNewLocationLogin, "New Location Login Detected",
		fmt.Sprintf("A login was detected from a new location: %s (IP: %s). %s", location, e.IPAddress, secureYourAccount))
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}

func (s *Scope) twoFactorEnabled(ctx context.Context, e events.TwoFactorEnabledEvent) error {
	req := newRequest(models.TypeTwoFactorEnabled, "Two-Factor Authentication Enabled",
		fmt.Sprintf("Two-factor authentication has been enabled on your account using %s.", e.TwoFactorMethod))
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) twoFactorDisabled(ctx context.Context, e events.TwoFactorDisabledEvent) error {
	req := newRequest(models.TypeTwoFactorDisabled, "Two-Factor Authentication Disabled",
		fmt.Sprintf("Two-factor authentication has been disabled on your account. Reason: %s. %s", e.DisabledReason, secureYourAccount))
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}

func (s *Scope) passwordChanged(ctx context.Context, e events.PasswordChangedEvent) error {
	changedBy := "an administrator"
	if e.ByUser() {
		changedBy = "you"
	}
	req := newRequest(models.TypePasswordChanged, "Password Changed",
		fmt.Sprintf("Your password has been changed by %s from IP %s. %s", changedBy, e.IPAddress, secureYourAccount))
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}

// emailChanged notifies the account's current address only. The old
// address is not reachable through the orchestrator, which resolves
// contact details by user id.
func (s *Scope) emailChanged(ctx context.Context, e events.EmailChangedEvent) error {
	req := newRequest(models.TypeEmailChanged, "Email Address Changed",
		fmt.Sprintf("Your email address has been changed to this address from IP %s. If this wasn't you, please contact support immediately.", e.IPAddress))
	req.Data = map[string]interface{}{"oldEmail": e.OldEmail, "newEmail": e.NewEmail}
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}

func (s *Scope) suspiciousActivity(ctx context.Context, e events.SuspiciousActivityEvent) error {
	severity := strings.ToLower(e.Severity)
	req := newRequest(models.TypeSuspiciousActivity,
		fmt.Sprintf("%s Suspicious Activity Detected", strings.ToUpper(e.Severity)),
		fmt.Sprintf("We detected suspicious activity on your account: %s from IP %s. Please review your account security immediately.", e.Description, e.IPAddress))
	req.Data = map[string]interface{}{"activityType": e.ActivityType, "severity": severity}

	channels := []string{models.ChannelEmail, models.ChannelSMS}
	if severity == "high" || severity == "critical" {
		channels = append(channels, models.ChannelWebPush)
	}
	return s.send(ctx, e.UserID, req, channels...)
}
