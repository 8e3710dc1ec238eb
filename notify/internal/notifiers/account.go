package notifiers

import (
	"context"
	"fmt"
	"strings"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

func (s *Scope) userCreated(ctx context.Context, e events.UserCreatedEvent) error {
	if err := s.Email.SendWelcome(ctx, e.Email, e.FirstName); err != nil {
		return fmt.Errorf("welcome email: %w", err)
	}
	s.Logger.InfoContext(ctx, "welcome email sent", logging.UserID(e.UserID))
	return nil
}

func (s *Scope) emailVerificationRequested(ctx context.Context, e events.EmailVerificationRequestedEvent) error {
	if err := s.Email.SendVerification(ctx, e.Email, e.VerificationToken); err != nil {
		return fmt.Errorf("verification email: %w", err)
	}
	s.Logger.InfoContext(ctx, "verification email sent", logging.UserID(e.UserID))
	return nil
}

func (s *Scope) passwordResetRequested(ctx context.Context, e events.PasswordResetRequestedEvent) error {
	if err := s.Email.SendPasswordReset(ctx, e.Email, e.ResetToken); err != nil {
		return fmt.Errorf("password reset email: %w", err)
	}
	s.Logger.InfoContext(ctx, "password reset email sent", logging.UserID(e.UserID))
	return nil
}

func (s *Scope) userEmailVerified(ctx context.Context, e events.UserEmailVerifiedEvent) error {
	if err := s.Email.SendWelcome(ctx, e.Email, e.FirstName); err != nil {
		return fmt.Errorf("welcome email: %w", err)
	}
	s.Logger.InfoContext(ctx, "welcome email sent to verified user", logging.UserID(e.UserID))
	return nil
}

func (s *Scope) userLogin(ctx context.Context, e events.UserLoginEvent) error {
	req := newRequest(models.TypeNewDeviceLogin, "New Login Detected",
		fmt.Sprintf("A new login was detected from IP address %s. If this wasn't you, please secure your account immediately.", e.IPAddress))
	return s.send(ctx, e.UserID, req, models.ChannelEmail)
}

func (s *Scope) userUpdated(ctx context.Context, e events.UserUpdatedEvent) error {
	req := newRequest(models.TypeProfileUpdated, "Account Updated",
		"Your account information has been updated successfully.")
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) userVerified(ctx context.Context, e events.UserVerifiedEvent) error {
	req := newRequest(models.TypeEmailVerified, "Verification Complete",
		fmt.Sprintf("Your %s has been verified successfully.", orDefault(e.VerificationType, "account")))
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) profileUpdated(ctx context.Context, e events.ProfileUpdatedEvent) error {
	req := newRequest(models.TypeProfileUpdated, "Profile Updated",
		fmt.Sprintf("Your profile has been updated. Changed fields: %s.", strings.Join(e.ChangedFields, ", ")))
	req.Data = map[string]interface{}{"changedFields": e.ChangedFields}
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) preferencesUpdated(ctx context.Context, e events.PreferencesUpdatedEvent) error {
	req := newRequest(models.TypePreferencesUpdated, "Preferences Updated",
		fmt.Sprintf("Your %s preferences have been updated successfully.", e.PreferenceCategory))
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) phoneVerified(ctx context.Context, e events.PhoneVerifiedEvent) error {
	req := newRequest(models.TypePhoneVerified, "Phone Number Verified",
		fmt.Sprintf("Your phone number %s has been verified successfully.", e.PhoneNumber))
	return s.send(ctx, e.UserID, req)
}
