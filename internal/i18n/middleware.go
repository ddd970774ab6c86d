package i18n

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Locals keys set by Middleware.
const (
	LocalizerKey = "localizer"
	LangKey      = "lang"
)

// Middleware detects the request language from the "lang" query parameter,
// then the "lang" cookie, then Accept-Language. An explicit query choice is
// remembered in the cookie.
func (t *Translator) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("lang")
		lang := t.Match(q, c.Cookies("lang"), c.Get(fiber.HeaderAcceptLanguage))
		if q != "" && lang == q {
			c.Cookie(&fiber.Cookie{Name: "lang", Value: lang, HTTPOnly: true, SameSite: fiber.CookieSameSiteLaxMode})
		}

		c.Locals(LocalizerKey, t.Localizer(lang))
		c.Locals(LangKey, lang)
		return c.Next()
	}
}

// LocalizerFrom returns the request localizer, or a fallback one when the
// middleware did not run.
func (t *Translator) LocalizerFrom(c *fiber.Ctx) *i18n.Localizer {
	if l, ok := c.Locals(LocalizerKey).(*i18n.Localizer); ok {
		return l
	}
	return t.Localizer(t.Match())
}
