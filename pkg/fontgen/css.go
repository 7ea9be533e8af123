package fontgen

import (
	"fmt"
	"strings"
	"text/template"
)

var stylesheet = template.Must(template.New("iconfont.css").Parse(`@font-face {
  font-family: "{{.Family}}";
  src: url("{{.Family}}.woff2") format("woff2"),
    url("{{.Family}}.woff") format("woff"),
    url("{{.Family}}.ttf") format("truetype");
  font-weight: normal;
  font-style: normal;
  font-display: {{.Display}};
}

[class^="{{.Prefix}}-"]::before,
[class*=" {{.Prefix}}-"]::before {
  font-family: "{{.Family}}" !important;
  font-style: normal;
  font-weight: normal !important;
  font-variant: normal;
  text-transform: none;
  line-height: 1;
  -webkit-font-smoothing: antialiased;
  -moz-osx-font-smoothing: grayscale;
}
{{range .Glyphs}}
.{{$.Prefix}}-{{.Class}}::before {
  content: "\{{.Hex}}";
}
{{end}}`))

type cssGlyph struct {
	Class string
	Hex   string
}

type cssData struct {
	Family  string
	Prefix  string
	Display string
	Glyphs  []cssGlyph
}

func renderCSS(family, prefix, display string, names []string, codepoints []rune) (string, error) {
	data := cssData{Family: family, Prefix: prefix, Display: display}
	for i, name := range names {
		data.Glyphs = append(data.Glyphs, cssGlyph{
			Class: cssIdent(name),
			Hex:   fmt.Sprintf("%x", codepoints[i]),
		})
	}

	var sb strings.Builder
	if err := stylesheet.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render stylesheet: %w", err)
	}
	return sb.String(), nil
}

// cssIdent escapes an icon name for use after the class prefix
func cssIdent(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r >= 0x80:
			sb.WriteRune(r)
		case r < 0x20 || r == 0x7F || r == ' ':
			fmt.Fprintf(&sb, "\\%x ", r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
