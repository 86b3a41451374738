package schedule

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Locale selects the language of relative descriptions
type Locale string

const (
	English    Locale = "en"
	Portuguese Locale = "pt-BR"
)

const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

type phrasing struct {
	upcoming   string
	overdue    string
	magnitudes []humanize.RelTimeMagnitude
}

var phrasings = map[Locale]phrasing{
	English: {
		upcoming: "in",
		overdue:  "overdue by",
		magnitudes: []humanize.RelTimeMagnitude{
			{D: time.Minute, Format: "now", DivBy: time.Second},
			{D: 2 * time.Minute, Format: "%s 1 minute", DivBy: 1},
			{D: time.Hour, Format: "%s %d minutes", DivBy: time.Minute},
			{D: 2 * time.Hour, Format: "%s 1 hour", DivBy: 1},
			{D: day, Format: "%s %d hours", DivBy: time.Hour},
			{D: 2 * day, Format: "%s 1 day", DivBy: 1},
			{D: month, Format: "%s %d days", DivBy: day},
			{D: 2 * month, Format: "%s 1 month", DivBy: 1},
			{D: year, Format: "%s %d months", DivBy: month},
			{D: 2 * year, Format: "%s 1 year", DivBy: 1},
			{D: math.MaxInt64, Format: "%s %d years", DivBy: year},
		},
	},
	Portuguese: {
		upcoming: "em",
		overdue:  "atrasada há",
		magnitudes: []humanize.RelTimeMagnitude{
			{D: time.Minute, Format: "agora", DivBy: time.Second},
			{D: 2 * time.Minute, Format: "%s 1 minuto", DivBy: 1},
			{D: time.Hour, Format: "%s %d minutos", DivBy: time.Minute},
			{D: 2 * time.Hour, Format: "%s 1 hora", DivBy: 1},
			{D: day, Format: "%s %d horas", DivBy: time.Hour},
			{D: 2 * day, Format: "%s 1 dia", DivBy: 1},
			{D: month, Format: "%s %d dias", DivBy: day},
			{D: 2 * month, Format: "%s 1 mês", DivBy: 1},
			{D: year, Format: "%s %d meses", DivBy: month},
			{D: 2 * year, Format: "%s 1 ano", DivBy: 1},
			{D: math.MaxInt64, Format: "%s %d anos", DivBy: year},
		},
	},
}

// ParseLocale maps a locale tag to a supported Locale, defaulting to English
func ParseLocale(tag string) Locale {
	t := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if strings.HasPrefix(t, "pt") {
		return Portuguese
	}
	return English
}

// RelativeDescription describes the distance from now to target, e.g. "in 3 days".
// Targets in the past are described as overdue ("overdue by 1 hour").
func RelativeDescription(target, now time.Time, locale Locale) string {
	p, ok := phrasings[locale]
	if !ok {
		p = phrasings[English]
	}
	// CustomRelTime picks the first label when target is before now
	return humanize.CustomRelTime(target, now, p.overdue, p.upcoming, p.magnitudes)
}
