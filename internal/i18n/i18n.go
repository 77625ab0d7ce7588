// Package i18n translates user-visible strings. Messages are keyed by their
// English source text; control keywords and identifiers never go through here.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Source strings.
const (
	MsgJoinMeeting  = "Join meeting with id: %s"
	MsgConfigLoaded = "Config loaded successfully!"
	MsgConfigFailed = "Failed to load meetings!"
	MsgCopyID       = "Copy meeting id"
	MsgCopyPasscode = "Copy meeting passcode"
	MsgCopyURI      = "Copy meeting uri"
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgJoinMeeting:  "Meeting mit ID %s beitreten",
		MsgConfigLoaded: "Konfiguration erfolgreich geladen!",
		MsgConfigFailed: "Meetings konnten nicht geladen werden!",
		MsgCopyID:       "Meeting-ID kopieren",
		MsgCopyPasscode: "Meeting-Kenncode kopieren",
		MsgCopyURI:      "Meeting-URI kopieren",
	},
	language.Arabic: {
		MsgJoinMeeting:  "الانضمام إلى الاجتماع برقم: %s",
		MsgConfigLoaded: "تم تحميل الإعدادات بنجاح!",
		MsgConfigFailed: "تعذر تحميل الاجتماعات!",
		MsgCopyID:       "نسخ رقم الاجتماع",
		MsgCopyPasscode: "نسخ رمز مرور الاجتماع",
		MsgCopyURI:      "نسخ رابط الاجتماع",
	},
}

// Translator looks up messages for one language.
type Translator interface {
	Sprintf(key string, args ...any) string
}

type printer struct {
	p *message.Printer
}

func (p printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// New returns a Translator for tag. Unknown languages get the source text.
func New(tag language.Tag) Translator {
	return printer{p: message.NewPrinter(tag, message.Catalog(builder))}
}

// FromEnv picks the language from LC_ALL, LC_MESSAGES or LANG, in that order.
func FromEnv() language.Tag {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return ParseLocale(v)
		}
	}
	return language.English
}

// ParseLocale converts a POSIX locale such as "de_DE.UTF-8@euro" into a tag.
func ParseLocale(locale string) language.Tag {
	locale, _, _ = strings.Cut(locale, ".")
	locale, _, _ = strings.Cut(locale, "@")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return language.English
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}
