package scaffold

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/kiln/pkg/core"
)

// bodyIndent nests include lines one level below the skeleton's <body> line.
const bodyIndent = "    "

const rootTemplate = `<!DOCTYPE html>

<html>
  <head>
    <link rel="stylesheet" href="index.css">
    <title>Untitled</title>
  </head>
  <body>
`

const rootStyle = ""

const commonTemplate = `{{- /*
  Component helpers.

  A component enters its own scope with

    {{with component . "name"}} ... {{end}}

  Inside the block {{.ImagePath "logo.png"}} renders imgs/name_logo.png,
  resolved against the innermost component. The enclosing scope is back in
  place once the block ends, so components can include other components.
*/ -}}
{{- define "image" -}}
<img src="{{.Path}}" alt="{{.Name}}">
{{- end -}}
`

const commonStyle = `@function image-path($name)
  @return "imgs/#{$component}_#{$name}"
`

func componentTemplate(name string) string {
	return fmt.Sprintf(`{{with component . %q}}
  <div class=%q></div>
{{end}}
`, name, name)
}

func componentStyle(name string) string {
	return fmt.Sprintf("@import ../%s\n\n$component: %q\n", core.CommonName, name)
}

// templateName is the name a component template is registered under when the
// source tree is compiled.
func templateName(name string) string {
	return core.ComponentsDir + "/" + name + "/" + core.IndexName + core.TemplateExt
}

func includeLine(name string) string {
	return fmt.Sprintf("%s{{template %q .}}", bodyIndent, templateName(name))
}

func importLine(name string) string {
	return fmt.Sprintf("@import %s/%s/%s", core.ComponentsDir, name, core.IndexName)
}

// appendLine drops trailing whitespace from content and adds line as the new
// last line. Everything before the trailing whitespace is kept as is.
func appendLine(content, line string) string {
	trimmed := strings.TrimRightFunc(content, unicode.IsSpace)
	if trimmed == "" {
		return line + "\n"
	}
	return trimmed + "\n" + line + "\n"
}
