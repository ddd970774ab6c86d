package model

// Setting names as used in URLs and the CLI.
const (
	SettingEmailNotifications = "email_notifications"
	SettingSMSNotifications   = "sms_notifications"
	SettingTwoFactorAuth      = "two_factor_auth"
	SettingProfileVisibility  = "profile_visibility"
)

// SettingNames lists every toggle in display order.
var SettingNames = []string{
	SettingEmailNotifications,
	SettingSMSNotifications,
	SettingTwoFactorAuth,
	SettingProfileVisibility,
}

// Settings are client-local toggles. They are never sent to the API.
type Settings struct {
	EmailNotifications bool `json:"email_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
	TwoFactorAuth      bool `json:"two_factor_auth"`
	ProfileVisibility  bool `json:"profile_visibility"`
}

// DefaultSettings mirrors the initial state of a fresh dashboard.
func DefaultSettings() Settings {
	return Settings{
		EmailNotifications: true,
		SMSNotifications:   false,
		TwoFactorAuth:      true,
		ProfileVisibility:  true,
	}
}

// Field returns a pointer to the named flag, or nil for an unknown name.
func (s *Settings) Field(name string) *bool {
	switch name {
	case SettingEmailNotifications:
		return &s.EmailNotifications
	case SettingSMSNotifications:
		return &s.SMSNotifications
	case SettingTwoFactorAuth:
		return &s.TwoFactorAuth
	case SettingProfileVisibility:
		return &s.ProfileVisibility
	}
	return nil
}

// Profile is the editable profile on the Index screen. Client-local only.
type Profile struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

// Profile field names accepted by the Index form.
const (
	ProfileFullName   = "full_name"
	ProfileEmail      = "email"
	ProfilePhone      = "phone"
	ProfilePosition   = "position"
	ProfileDepartment = "department"
)

// Field returns a pointer to the named profile field, or nil.
func (p *Profile) Field(name string) *string {
	switch name {
	case ProfileFullName:
		return &p.FullName
	case ProfileEmail:
		return &p.Email
	case ProfilePhone:
		return &p.Phone
	case ProfilePosition:
		return &p.Position
	case ProfileDepartment:
		return &p.Department
	}
	return nil
}
