package web

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docdash/internal/client"
	"docdash/internal/dashboard"
	"docdash/internal/i18n"
	"docdash/internal/model"
	"docdash/internal/session"
)

var tabs = []string{"documents", "profile", "settings", "activity"}

var indexTabs = []string{"profile", "settings", "activity"}

type settingRow struct {
	Name  string
	Label string
	On    bool
}

type profileRow struct {
	Name  string
	Label string
	Value string
}

// withStore runs fn against the request session and persists it afterwards.
func (s *Server) withStore(c *fiber.Ctx, fn func(st *session.FiberStore) error) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	st := session.NewFiberStore(sess)
	fnErr := fn(st)
	if err := st.Save(); err != nil {
		s.log.ErrorContext(c.UserContext(), "session_save_failed", "error", err)
		if fnErr == nil {
			fnErr = err
		}
	}
	return fnErr
}

func (s *Server) render(c *fiber.Ctx, st session.Store, name string, data fiber.Map) error {
	data["L"] = s.tr.LocalizerFrom(c)
	data["Lang"] = c.Locals(i18n.LangKey)
	data["CSRFToken"] = c.Locals(csrfContextKey)
	toast, err := dashboard.PopToast(st)
	if err != nil {
		s.log.WarnContext(c.UserContext(), "toast_dropped", "error", err)
	}
	data["Toast"] = toast
	return c.Render(name, data)
}

func (s *Server) toast(c *fiber.Ctx, st session.Store, t dashboard.Toast) {
	if err := dashboard.PushToast(st, t); err != nil {
		s.log.WarnContext(c.UserContext(), "toast_dropped", "error", err)
	}
}

// apiToast shows the API's own message when there is one.
func apiToast(err error, fallback string) dashboard.Toast {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return dashboard.Toast{Kind: dashboard.ToastError, Message: apiErr.Message, Raw: true}
	}
	return dashboard.Toast{Kind: dashboard.ToastError, Message: fallback}
}

func redirect(c *fiber.Ctx, to string) error {
	return c.Redirect(to, fiber.StatusSeeOther)
}

// toLogin handles a missing, corrupt or expired session.
func (s *Server) toLogin(c *fiber.Ctx, st session.Store, err error) error {
	if errors.Is(err, session.ErrCorruptSession) {
		s.log.WarnContext(c.UserContext(), "session_corrupt", "error", err)
	}
	if errors.Is(err, dashboard.ErrSessionExpired) {
		s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastError, Message: "toast_session_expired"})
	}
	return redirect(c, "/login")
}

func pickTab(c *fiber.Ctx, allowed []string) string {
	tab := c.Query("tab")
	for _, t := range allowed {
		if t == tab {
			return tab
		}
	}
	return allowed[0]
}

func (s *Server) showLogin(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		if _, err := session.Bootstrap(st); err == nil {
			return redirect(c, "/")
		}
		return s.render(c, st, "login", fiber.Map{})
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	return s.withStore(c, func(st *session.FiberStore) error {
		if email == "" || password == "" {
			s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastError, Message: "toast_fields_required"})
			return redirect(c, "/login")
		}
		if _, err := s.dash.Login(c.UserContext(), st, email, password); err != nil {
			s.log.InfoContext(c.UserContext(), "login_failed", "error", err)
			s.toast(c, st, apiToast(err, "error_internal"))
			return redirect(c, "/login")
		}
		if err := st.Regenerate(); err != nil {
			return err
		}
		return redirect(c, "/")
	})
}

func (s *Server) showRegister(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		return s.render(c, st, "register", fiber.Map{})
	})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	fullName := strings.TrimSpace(c.FormValue("full_name"))

	return s.withStore(c, func(st *session.FiberStore) error {
		if email == "" || password == "" || fullName == "" {
			s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastError, Message: "toast_fields_required"})
			return redirect(c, "/register")
		}
		if _, err := s.dash.Register(c.UserContext(), st, email, password, fullName); err != nil {
			s.toast(c, st, apiToast(err, "error_internal"))
			return redirect(c, "/register")
		}
		if err := st.Regenerate(); err != nil {
			return err
		}
		return redirect(c, "/")
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		if err := s.dash.Logout(st); err != nil {
			return err
		}
		// The old ID is dropped; local preferences move to the new one.
		if err := st.Regenerate(); err != nil {
			return err
		}
		return redirect(c, "/login")
	})
}

func (s *Server) showDashboard(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		view, err := s.dash.Load(c.UserContext(), st)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrCorruptSession) {
				return s.toLogin(c, st, err)
			}
			return err
		}
		return s.render(c, st, "dashboard", fiber.Map{
			"Tab":      pickTab(c, tabs),
			"View":     view,
			"Settings": settingRows(view.Settings, model.SettingEmailNotifications, model.SettingSMSNotifications, model.SettingTwoFactorAuth),
		})
	})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		in := dashboard.FileInput{Description: strings.TrimSpace(c.FormValue("description"))}

		if fh, err := c.FormFile("file"); err == nil && fh.Size > 0 {
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			in.Name = fh.Filename
			in.Type = fh.Header.Get(fiber.HeaderContentType)
			in.Data = f
		}

		_, err := s.dash.Upload(c.UserContext(), st, in)
		switch {
		case err == nil:
			s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastSuccess, Message: "toast_uploaded"})
		case errors.Is(err, dashboard.ErrNoFile):
			s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastError, Message: "toast_select_file"})
		case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrCorruptSession):
			return s.toLogin(c, st, err)
		default:
			s.log.WarnContext(c.UserContext(), "upload_failed", "error", err)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				s.toast(c, st, apiToast(err, "toast_upload_failed"))
			} else {
				s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastError, Message: "toast_upload_error"})
			}
		}
		return redirect(c, "/?tab=documents")
	})
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}

	return s.withStore(c, func(st *session.FiberStore) error {
		err := s.dash.Delete(c.UserContext(), st, id)
		switch {
		case err == nil:
			s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastSuccess, Message: "toast_deleted"})
		case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrCorruptSession):
			return s.toLogin(c, st, err)
		default:
			s.toast(c, st, apiToast(err, "toast_delete_failed"))
		}
		return redirect(c, "/?tab=documents")
	})
}

func (s *Server) handleToggle(back string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.withStore(c, func(st *session.FiberStore) error {
			if _, err := s.dash.ToggleSetting(st, c.Params("name")); err != nil {
				if !errors.Is(err, dashboard.ErrUnknownSetting) {
					return err
				}
				s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastError, Message: "toast_unknown_setting"})
			}
			return redirect(c, back)
		})
	}
}

func (s *Server) showIndex(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		profile, err := s.dash.LoadProfile(st)
		if err != nil {
			return err
		}
		settings, err := s.dash.Settings(st)
		if err != nil {
			return err
		}
		return s.render(c, st, "index", fiber.Map{
			"Tab":      pickTab(c, indexTabs),
			"Profile":  profile,
			"Initials": model.User{FullName: profile.FullName}.Initials(),
			"Fields":   profileRows(profile),
			"Settings": settingRows(settings, model.SettingNames...),
			"Activity": dashboard.Activity(0),
		})
	})
}

func (s *Server) handleProfile(c *fiber.Ctx) error {
	return s.withStore(c, func(st *session.FiberStore) error {
		for _, name := range profileFields {
			if !formHas(c, name) {
				continue
			}
			if _, err := s.dash.UpdateProfile(st, name, strings.TrimSpace(c.FormValue(name))); err != nil {
				return err
			}
		}
		s.toast(c, st, dashboard.Toast{Kind: dashboard.ToastSuccess, Message: "toast_profile_saved"})
		return redirect(c, "/index?tab=profile")
	})
}

// formHas reports whether name was submitted, even with an empty value.
func formHas(c *fiber.Ctx, name string) bool {
	if c.Request().PostArgs().Has(name) {
		return true
	}
	if mf, err := c.MultipartForm(); err == nil {
		_, ok := mf.Value[name]
		return ok
	}
	return false
}

var profileFields = []string{
	model.ProfileFullName,
	model.ProfileEmail,
	model.ProfilePhone,
	model.ProfilePosition,
	model.ProfileDepartment,
}

func profileRows(p model.Profile) []profileRow {
	rows := make([]profileRow, 0, len(profileFields))
	for _, name := range profileFields {
		rows = append(rows, profileRow{Name: name, Label: name, Value: *p.Field(name)})
	}
	return rows
}

func settingRows(s model.Settings, names ...string) []settingRow {
	rows := make([]settingRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, settingRow{Name: name, Label: name, On: *s.Field(name)})
	}
	return rows
}
