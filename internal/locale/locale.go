package locale

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	LanguagePortuguese = "pt"
	LanguageEnglish    = "en"
)

// Preference 描述一次请求使用的语言，Tag 用于 Content-Language 响应头
type Preference struct {
	Language string
	Locale   string
	Tag      string
}

var portugueseMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "pt") || trimmed == "br" {
		return LanguagePortuguese
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage picks the highest weighted supported language.
func LanguageFromAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		base, _ := tag.Base()
		if normalized := NormalizeLanguage(base.String()); normalized != "" {
			return normalized
		}
	}
	return ""
}

func PreferenceForLanguage(language string) Preference {
	if NormalizeLanguage(language) == LanguageEnglish {
		return Preference{Language: LanguageEnglish, Locale: "en_US", Tag: "en-US"}
	}
	return Preference{Language: LanguagePortuguese, Locale: "pt_BR", Tag: "pt-BR"}
}

// Pick returns the text matching the request language, defaulting to Portuguese.
func Pick(language, english, portuguese string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return portuguese
	}
	if portuguese != "" {
		return portuguese
	}
	return english
}

// MonthLabel formats the month the way progress documents are keyed,
// e.g. "março 2025". Labels are always Portuguese so that documents written by
// clients in different languages land on the same key.
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", portugueseMonths[t.Month()-1], t.Year())
}

// ParseMonthLabel is the inverse of MonthLabel. The returned time is the first
// day of the month in loc.
func ParseMonthLabel(label string, loc *time.Location) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(label)))
	if len(fields) != 2 {
		return time.Time{}, false
	}

	var year int
	if _, err := fmt.Sscanf(fields[1], "%d", &year); err != nil || year <= 0 {
		return time.Time{}, false
	}

	for i, name := range portugueseMonths {
		if name == fields[0] {
			if loc == nil {
				loc = time.Local
			}
			return time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}
