package formula

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/0xsend/homebrew-canton/internal/release"
)

var tokenPattern = regexp.MustCompile(`\{\{[A-Z][A-Z0-9_]*\}\}`)

// Tokens returns the substitution map for rec. latest selects the
// unversioned formula shape: empty class suffix and a "latest"
// version type.
func Tokens(rec release.Record, latest bool) map[string]string {
	cleaned := release.CleanTag(rec.Tag)
	return map[string]string{
		"DAML_TAG":       rec.Tag,
		"VERSION":        cleaned,
		"CANTON_VERSION": rec.CantonVersion,
		"DOWNLOAD_URL":   rec.DownloadURL,
		"SHA256":         rec.SHA256,
		"IS_PRERELEASE":  strconv.FormatBool(rec.IsPrerelease),
		"RELEASE_TYPE":   rec.ReleaseType(),
		"CLASS_SUFFIX":   ClassSuffix(cleaned, latest),
		"VERSION_TYPE":   versionType(cleaned, latest),
	}
}

// Render substitutes rec into the template. Placeholders that survive
// substitution are reported through a RenderError.
func Render(t *Template, rec release.Record, latest bool) (string, error) {
	content := t.content
	for k, v := range Tokens(rec, latest) {
		content = strings.ReplaceAll(content, "{{"+k+"}}", v)
	}

	if leftover := tokenPattern.FindAllString(content, -1); len(leftover) > 0 {
		seen := make(map[string]bool)
		var tokens []string
		for _, tok := range leftover {
			if !seen[tok] {
				seen[tok] = true
				tokens = append(tokens, tok)
			}
		}
		sort.Strings(tokens)
		return "", &RenderError{Template: t.path, Tokens: tokens}
	}
	return content, nil
}

// ClassSuffix turns a cleaned version into the Ruby class name
// suffix: separators dropped, alphabetic segments capitalized, so
// "1.2.3-snap.1" becomes "123Snap1". The latest formula has no
// suffix.
func ClassSuffix(cleaned string, latest bool) string {
	if latest {
		return ""
	}
	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '.' || r == '-'
	})
	var b strings.Builder
	for _, p := range parts {
		runes := []rune(p)
		if unicode.IsLetter(runes[0]) {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

func versionType(cleaned string, latest bool) string {
	if latest {
		return "latest"
	}
	return cleaned
}

// FileName returns the formula file name for rec: canton.rb for the
// latest formula, canton@<version>.rb for a pinned one.
func FileName(rec release.Record, latest bool) string {
	if latest {
		return "canton.rb"
	}
	return "canton@" + release.CleanTag(rec.Tag) + ".rb"
}
