package dashboard

import (
	"docdash/internal/model"
	"docdash/internal/session"
)

// Settings returns the stored toggles, or the defaults.
func (s *Service) Settings(store session.Store) (model.Settings, error) {
	settings := model.DefaultSettings()
	if _, err := session.GetJSON(store, session.KeySettings, &settings); err != nil {
		s.log.Warn("settings_reset", "error", err)
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

// ToggleSetting flips one flag and leaves the others alone.
func (s *Service) ToggleSetting(store session.Store, name string) (model.Settings, error) {
	settings, err := s.Settings(store)
	if err != nil {
		return settings, err
	}
	f := settings.Field(name)
	if f == nil {
		return settings, ErrUnknownSetting
	}
	*f = !*f
	return settings, session.SetJSON(store, session.KeySettings, settings)
}

// SetSetting sets one flag.
func (s *Service) SetSetting(store session.Store, name string, value bool) (model.Settings, error) {
	settings, err := s.Settings(store)
	if err != nil {
		return settings, err
	}
	f := settings.Field(name)
	if f == nil {
		return settings, ErrUnknownSetting
	}
	*f = value
	return settings, session.SetJSON(store, session.KeySettings, settings)
}

// DefaultProfile is the demo profile shown before any edit.
func DefaultProfile() model.Profile {
	return model.Profile{
		FullName:   "Александр Петров",
		Email:      "a.petrov@company.com",
		Phone:      "+7 (999) 123-45-67",
		Position:   "Старший менеджер",
		Department: "Отдел продаж",
	}
}

// LoadProfile returns the stored demo profile, or the default one.
func (s *Service) LoadProfile(store session.Store) (model.Profile, error) {
	p := DefaultProfile()
	if _, err := session.GetJSON(store, session.KeyProfile, &p); err != nil {
		s.log.Warn("profile_reset", "error", err)
		return DefaultProfile(), nil
	}
	return p, nil
}

// UpdateProfile changes one field of the demo profile.
func (s *Service) UpdateProfile(store session.Store, field, value string) (model.Profile, error) {
	p, err := s.LoadProfile(store)
	if err != nil {
		return p, err
	}
	f := p.Field(field)
	if f == nil {
		return p, ErrUnknownField
	}
	*f = value
	return p, session.SetJSON(store, session.KeyProfile, p)
}
