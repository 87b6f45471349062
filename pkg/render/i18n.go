package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTranslator is passed to the missing handler when no translator is
// configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler produces the text used when a key has no
// translation. fallback is the "default" hash value, if any.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

// I18nConfig configures TranslateHelper.
type I18nConfig struct {
	// Locale is used when the call passes no locale= hash value.
	Locale string
	// OnMissing defaults to returning the fallback, then the key.
	OnMissing MissingTranslationHandler
}

// TranslateHelper returns a helper, usually registered as "t":
//
//	{{t "greeting.hello" @name locale="es" default="Hello"}}
//
// Positional args after the key are passed to the translator.
func TranslateHelper(t Translator, cfg I18nConfig) Helper {
	onMissing := cfg.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	return func(params []any, hash map[string]any) (any, error) {
		if len(params) == 0 {
			return nil, errors.New("translation key is required")
		}
		key := strings.TrimSpace(Stringify(params[0]))
		if key == "" {
			return "", nil
		}
		locale := cfg.Locale
		if v, ok := hash["locale"]; ok && Stringify(v) != "" {
			locale = Stringify(v)
		}
		fallback := Stringify(hash["default"])

		if t == nil {
			return onMissing(locale, key, fallback, ErrMissingTranslator), nil
		}
		msg, err := t.Translate(locale, key, params[1:]...)
		if err != nil || strings.TrimSpace(msg) == "" {
			return onMissing(locale, key, fallback, err), nil
		}
		return msg, nil
	}
}

func missingTranslationDefault(_, key, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// Messages is a Translator backed by per-locale message maps. Lookups fall
// back from a regional locale ("es-MX") to its base language ("es").
// Messages containing % verbs are formatted with the call's args.
type Messages map[string]map[string]string

// Translate implements Translator.
func (m Messages) Translate(locale, key string, args ...any) (string, error) {
	for _, candidate := range localeChain(locale) {
		msg, ok := m[candidate][key]
		if !ok {
			continue
		}
		if len(args) > 0 && strings.Contains(msg, "%") {
			return fmt.Sprintf(msg, args...), nil
		}
		return msg, nil
	}
	return "", fmt.Errorf("render: no %q translation for locale %q", key, locale)
}

func localeChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return []string{""}
	}
	chain := []string{locale}
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		chain = append(chain, locale[:i])
	}
	return chain
}
