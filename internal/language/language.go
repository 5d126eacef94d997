package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// bibliographic ISO 639-2/B codes that ParseBase does not accept.
var bibliographic = map[string]string{
	"fre": "fra",
	"ger": "deu",
	"chi": "zho",
	"dut": "nld",
	"gre": "ell",
	"cze": "ces",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"geo": "kat",
	"ice": "isl",
	"mac": "mkd",
	"may": "msa",
	"wel": "cym",
	"tib": "bod",
}

func parse(code string) (language.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "und" {
		return language.Base{}, false
	}
	if alt, ok := bibliographic[code]; ok {
		code = alt
	}
	if base, err := language.ParseBase(code); err == nil {
		return base, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Base{}, false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return language.Base{}, false
	}
	return base, true
}

// ToISO1 returns the two-letter code for code, or "" when unknown.
func ToISO1(code string) string {
	base, ok := parse(code)
	if !ok {
		return ""
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// ToISO3 returns the three-letter ISO 639-2/T code for code, or "" when unknown.
func ToISO3(code string) string {
	base, ok := parse(code)
	if !ok {
		return ""
	}
	return base.ISO3()
}

// Matches reports whether two codes name the same language regardless of form.
func Matches(a, b string) bool {
	left, ok := parse(a)
	if !ok {
		return false
	}
	right, ok := parse(b)
	return ok && left == right
}

// DisplayName returns the English name for code, falling back to the upper-cased code.
func DisplayName(code string) string {
	base, ok := parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
