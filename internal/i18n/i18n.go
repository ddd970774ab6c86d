// Package i18n loads the dashboard's message catalogs and resolves the
// request language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Supported languages, first one is the fallback.
var supported = []language.Tag{language.Russian, language.English}

// Translator owns the message bundle.
type Translator struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
	log     *slog.Logger
}

// New loads the embedded catalogs.
func New(log *slog.Logger) (*Translator, error) {
	bundle := i18n.NewBundle(supported[0])
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, name := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, name); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher(supported),
		log:     log,
	}, nil
}

// Match picks a supported language for the given preferences. Each argument
// may be a bare tag ("en") or an Accept-Language value; the first one that
// parses wins. No usable preference means the fallback.
func (t *Translator) Match(prefs ...string) string {
	for _, p := range prefs {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := t.matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return baseOf(supported[idx])
	}
	return baseOf(supported[0])
}

// Localizer returns a localizer for lang.
func (t *Translator) Localizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(t.bundle, lang, baseOf(supported[0]))
}

// T translates a message ID. Unknown IDs come back unchanged.
func (t *Translator) T(l *i18n.Localizer, id string) string {
	return t.localize(l, &i18n.LocalizeConfig{MessageID: id})
}

// TWithData translates a message ID with template data.
func (t *Translator) TWithData(l *i18n.Localizer, id string, data map[string]any) string {
	return t.localize(l, &i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// TPlural translates a message ID picking the plural form for count.
func (t *Translator) TPlural(l *i18n.Localizer, id string, count int) string {
	return t.localize(l, &i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (t *Translator) localize(l *i18n.Localizer, cfg *i18n.LocalizeConfig) string {
	msg, err := l.Localize(cfg)
	if err != nil {
		t.log.Debug("translation_missing", "message_id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return msg
}

func baseOf(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}
