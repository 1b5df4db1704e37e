package templater

import (
	"strings"
	"unicode"
)

// Directive tokens recognised in template paths and contents.
const (
	TokenContent  = "__c__"
	TokenKeep     = "__k__"
	TokenName     = "__n__"
	TokenVersion  = "__v__"
	TokenTier     = "__t__"
	TokenPlatform = "__p__"
	TokenDelete   = "__d__"

	tokenLen = 5
)

// Values are the substitutions applied to __n__, __v__, __t__ and __p__.
type Values struct {
	Name     string
	Version  string
	Tier     string
	Platform string
}

// directives records the structural tokens found while resolving a path.
type directives struct {
	content bool
	remove  bool
}

type mode int

const (
	modeContent mode = iota
	modePath
)

// substitute scans text once from left to right. Text produced by
// stripping a keep marker is never rescanned, so "___k___n__" yields a
// literal "__n__". In path mode the content marker is stripped and both it
// and the delete marker are reported as directives; in content mode they are
// left untouched.
func substitute(text string, v Values, m mode) (string, directives) {
	var (
		b   strings.Builder
		dir directives
	)
	if !strings.Contains(text, "__") {
		return text, dir
	}
	b.Grow(len(text))

	for i := 0; i < len(text); {
		tok, ok := tokenAt(text, i)
		if !ok {
			b.WriteByte(text[i])
			i++
			continue
		}
		switch tok {
		case TokenKeep:
		case TokenName:
			b.WriteString(v.Name)
		case TokenVersion:
			b.WriteString(v.Version)
		case TokenTier:
			b.WriteString(v.Tier)
		case TokenPlatform:
			b.WriteString(v.Platform)
		case TokenContent:
			if m == modePath {
				dir.content = true
			} else {
				b.WriteString(tok)
			}
		case TokenDelete:
			if m == modePath {
				dir.remove = true
			}
			b.WriteString(tok)
		}
		i += tokenLen
	}
	return b.String(), dir
}

func hasToken(text string) bool {
	for i := 0; i+tokenLen <= len(text); i++ {
		if _, ok := tokenAt(text, i); ok {
			return true
		}
	}
	return false
}

func tokenAt(text string, i int) (string, bool) {
	if i+tokenLen > len(text) || text[i] != '_' || text[i+1] != '_' || text[i+3] != '_' || text[i+4] != '_' {
		return "", false
	}
	switch text[i+2] {
	case 'c', 'k', 'n', 'v', 't', 'p', 'd':
		return text[i : i+tokenLen], true
	}
	return "", false
}

// Normalize turns a directory name into an identifier: characters other than
// letters, digits and underscores separate words, each word is capitalised
// with the rest lower-cased, and digits pass through and start a new word.
//
//	"my amazing plugin" -> "MyAmazingPlugin"
//	"my1plugin"         -> "My1Plugin"
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	upper := false
	for _, r := range s {
		switch {
		case IsSeparator(r):
			upper = false
		case unicode.IsNumber(r):
			b.WriteRune(r)
			upper = false
		case upper:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToUpper(r))
			upper = true
		}
	}
	return b.String()
}

// IsSeparator reports whether r splits words in Normalize.
func IsSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
