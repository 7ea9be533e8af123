// Package placeholder swaps the generated font file names in a stylesheet
// for fixed tokens, and later swaps the tokens for the names the bundler
// assigned.
//
// The dev server answers requests for the token URLs directly, so the
// stylesheet never has to change when fonts are regenerated.
package placeholder

import (
	"regexp"
	"strings"
)

// Token stands in for the font family file name in generated stylesheets.
const Token = "__SVG_ICONFONT_FONT_PLACEHOLDER__"

// Format is a font file extension
type Format string

const (
	FormatTTF   Format = "ttf"
	FormatWOFF  Format = "woff"
	FormatWOFF2 Format = "woff2"
)

// Formats lists the generated formats in matching priority order
var Formats = []Format{FormatTTF, FormatWOFF, FormatWOFF2}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	return "font/" + string(f)
}

// FileName is the placeholder file name for the format, e.g.
// "__SVG_ICONFONT_FONT_PLACEHOLDER__.woff2"
func (f Format) FileName() string {
	return Token + "." + string(f)
}

// URL is the dev server path the placeholder resolves to from a stylesheet
// served at the site root.
func (f Format) URL() string {
	return "/" + f.FileName()
}

// ParseFormat returns the format for ext ("ttf", "woff", "woff2")
func ParseFormat(ext string) (Format, bool) {
	switch Format(ext) {
	case FormatTTF, FormatWOFF, FormatWOFF2:
		return Format(ext), true
	}
	return "", false
}

// ParseURL matches path exactly against the three placeholder URLs
func ParseURL(path string) (Format, bool) {
	ext, ok := strings.CutPrefix(path, "/"+Token+".")
	if !ok {
		return "", false
	}
	return ParseFormat(ext)
}

// FileNames maps each format to the final emitted file name
type FileNames map[Format]string

var tokenPattern = regexp.MustCompile(regexp.QuoteMeta(Token) + `\.(ttf|woff2?)`)

// Substitute replaces every "<family>.ttf|woff|woff2" in css with the
// placeholder file name for that format. Only the file name changes, so
// directory prefixes and query strings around it survive.
func Substitute(css, family string) string {
	if family == "" {
		return css
	}
	pattern := regexp.MustCompile(regexp.QuoteMeta(family) + `\.(ttf|woff2?)`)
	return pattern.ReplaceAllStringFunc(css, func(match string) string {
		ext := match[strings.LastIndexByte(match, '.')+1:]
		return Token + "." + ext
	})
}

// Resolve replaces each placeholder file name in css with names[format].
// A format without a name resolves to the empty string.
func Resolve(css string, names FileNames) string {
	return tokenPattern.ReplaceAllStringFunc(css, func(match string) string {
		ext := match[strings.LastIndexByte(match, '.')+1:]
		return names[Format(ext)]
	})
}

// Contains reports whether s still holds a placeholder
func Contains(s string) bool {
	return strings.Contains(s, Token)
}

// Referenced returns the formats whose placeholder occurs in css, in
// Formats order.
func Referenced(css string) []Format {
	seen := map[Format]bool{}
	for _, m := range tokenPattern.FindAllStringSubmatch(css, -1) {
		seen[Format(m[1])] = true
	}

	var out []Format
	for _, f := range Formats {
		if seen[f] {
			out = append(out, f)
		}
	}
	return out
}
