package events

import "time"

type UserCreatedEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type EmailVerificationRequestedEvent struct {
	UserID            string `json:"userId"`
	Email             string `json:"email"`
	VerificationToken string `json:"verificationToken"`
}

type PasswordResetRequestedEvent struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	ResetToken string `json:"resetToken"`
}

type UserEmailVerifiedEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type UserLoginEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	IPAddress string `json:"ipAddress"`
}

type UserUpdatedEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type UserVerifiedEvent struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	VerificationType string `json:"verificationType"`
}

type ProfileUpdatedEvent struct {
	UserID        string   `json:"userId"`
	Email         string   `json:"email"`
	ChangedFields []string `json:"changedFields"`
}

type PreferencesUpdatedEvent struct {
	UserID             string                 `json:"userId"`
	PreferenceCategory string                 `json:"preferenceCategory"`
	ChangedPreferences map[string]interface{} `json:"changedPreferences,omitempty"`
}

type AccountLockedEvent struct {
	UserID      string     `json:"userId"`
	Email       string     `json:"email"`
	LockReason  string     `json:"lockReason"`
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
	IPAddress   string     `json:"ipAddress"`
}

type AccountUnlockedEvent struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	UnlockReason string `json:"unlockReason"`
}

type FailedLoginAttemptsEvent struct {
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	AttemptCount  int       `json:"attemptCount"`
	IPAddress     string    `json:"ipAddress"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

type NewDeviceLoginEvent struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	IPAddress  string `json:"ipAddress"`
	UserAgent  string `json:"userAgent,omitempty"`
	Location   string `json:"location,omitempty"`
}

type NewLocationLoginEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	IPAddress string `json:"ipAddress"`
	Location  string `json:"location"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

type TwoFactorEnabledEvent struct {
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	TwoFactorMethod string `json:"twoFactorMethod"`
}

type TwoFactorDisabledEvent struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	DisabledReason string `json:"disabledReason"`
}

type PasswordChangedEvent struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	ChangedByUser    *bool  `json:"changedByUser,omitempty"`
	ChangedByAdminID string `json:"changedByAdminId,omitempty"`
	IPAddress        string `json:"ipAddress"`
}

// ByUser reports whether the account owner made the change. Producers that
// omit the flag mean the user did.
func (e PasswordChangedEvent) ByUser() bool {
	return e.ChangedByUser == nil || *e.ChangedByUser
}

type EmailChangedEvent struct {
	UserID    string `json:"userId"`
	OldEmail  string `json:"oldEmail"`
	NewEmail  string `json:"newEmail"`
	IPAddress string `json:"ipAddress"`
}

type PhoneVerifiedEvent struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type SuspiciousActivityEvent struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	ActivityType string `json:"activityType"`
	Description  string `json:"description"`
	IPAddress    string `json:"ipAddress"`
	Severity     string `json:"severity"`
}
