// Package i18n renders user notifications, moderation cards and channel posts from
// embedded locale catalogs.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"vacancyhub/internal/models"

	"gopkg.in/yaml.v3"
)

// Fallback is used for unknown or empty language codes.
const Fallback = "eng"

// Languages supported by every catalog.
var Languages = []string{"eng", "rus", "kaa", "uzb", "kaz", "kgz", "tjk", "aze", "tkm"}

// aliases maps two-letter codes, as Telegram clients report them, to catalog codes.
var aliases = map[string]string{
	"en": "eng",
	"ru": "rus",
	"uz": "uzb",
	"kk": "kaz",
	"ky": "kgz",
	"tg": "tjk",
	"az": "aze",
	"tk": "tkm",
}

//go:embed locales/*.yaml
var localeFS embed.FS

type notificationLabels struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Approve string `yaml:"approve"`
	Reject  string `yaml:"reject"`
}

type catalog struct {
	notifications map[string]notificationLabels
	kinds         map[models.Kind]map[string]map[string]string
}

var labels = mustLoad()

func mustLoad() *catalog {
	c, err := load()
	if err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	return c
}

func load() (*catalog, error) {
	c := &catalog{kinds: make(map[models.Kind]map[string]map[string]string)}

	raw, err := localeFS.ReadFile("locales/notifications.yaml")
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &c.notifications); err != nil {
		return nil, fmt.Errorf("notifications.yaml: %w", err)
	}
	if _, ok := c.notifications[Fallback]; !ok {
		return nil, fmt.Errorf("notifications.yaml: missing %s", Fallback)
	}

	for _, k := range models.Kinds {
		name := "locales/" + string(k) + ".yaml"
		raw, err := localeFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		var m map[string]map[string]string
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, ok := m[Fallback]; !ok {
			return nil, fmt.Errorf("%s: missing %s", name, Fallback)
		}
		c.kinds[k] = m
	}
	return c, nil
}

// Normalize maps a stored or client-reported language code to a catalog code.
func Normalize(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return Fallback
	}
	if i := strings.IndexAny(c, "-_"); i > 0 {
		c = c[:i]
	}
	if alias, ok := aliases[c]; ok {
		c = alias
	}
	if _, ok := labels.notifications[c]; !ok {
		return Fallback
	}
	return c
}

// Supported reports whether code names a catalog language, directly or by alias.
func Supported(code string) bool {
	c := strings.ToLower(strings.TrimSpace(code))
	if alias, ok := aliases[c]; ok {
		c = alias
	}
	_, ok := labels.notifications[c]
	return ok
}

func notification(lang string) notificationLabels {
	return labels.notifications[Normalize(lang)]
}

// kindLabel returns the label for key, falling back to English and then to the key.
func kindLabel(kind models.Kind, lang, key string) string {
	byLang := labels.kinds[kind]
	if l, ok := byLang[Normalize(lang)][key]; ok && l != "" {
		return l
	}
	if l, ok := byLang[Fallback][key]; ok && l != "" {
		return l
	}
	return key
}

// Title is the localized word for "application" used in card headers.
func Title(lang string) string {
	return notification(lang).Title
}

// AckText is sent to the author right after a submission is stored.
func AckText(lang string, postingID uint) string {
	n := notification(lang)
	return fmt.Sprintf("⏳ %s ID: %d\n%s", n.Title, postingID, n.Content)
}

// ApproveText tells the author where the posting was published.
func ApproveText(lang string, postingID uint, channelHandle string) string {
	return strings.NewReplacer(
		"{id}", fmt.Sprintf("%d", postingID),
		"{channel}", escape(strings.TrimPrefix(channelHandle, "@")),
	).Replace(notification(lang).Approve)
}

// RejectText carries the moderator's reason to the author.
func RejectText(lang string, postingID uint, reason string) string {
	return strings.NewReplacer(
		"{id}", fmt.Sprintf("%d", postingID),
		"{reason}", escape(reason),
	).Replace(notification(lang).Reject)
}
