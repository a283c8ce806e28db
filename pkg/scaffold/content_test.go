package scaffold

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/kiln/pkg/core"
)

func TestAppendLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    string
		want    string
	}{
		{"Empty File", "", "@import a", "@import a\n"},
		{"Whitespace Only", " \n\n", "@import a", "@import a\n"},
		{"Trailing Newline", "@import a\n", "@import b", "@import a\n@import b\n"},
		{"No Trailing Newline", "@import a", "@import b", "@import a\n@import b\n"},
		{"CRLF", "@import a\r\n", "@import b", "@import a\n@import b\n"},
		{"Keeps Inner Blank Lines", "a\n\nb\n\n", "c", "a\n\nb\nc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, appendLine(tt.content, tt.line))
		})
	}
}

func TestIncludeLines(t *testing.T) {
	assert.Equal(t, `    {{template "components/nav/index.gohtml" .}}`, includeLine("nav"))
	assert.Equal(t, "@import components/nav/index", importLine("nav"))
}

func TestComponentSources(t *testing.T) {
	// helpers from common.gohtml are in the same template set; nothing to include
	assert.Equal(t, "{{with component . \"nav\"}}\n  <div class=\"nav\"></div>\n{{end}}\n", componentTemplate("nav"))
	assert.Equal(t, "@import ../common\n\n$component: \"nav\"\n", componentStyle("nav"))
}

func TestValidateName(t *testing.T) {
	valid := []string{"header", "Header", "main-nav", "card_2", "x"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", "-x", "_x", "1x", "a b", "a/b", `a\b`, "..", "a.b", "ä", "common"}
	for _, name := range invalid {
		err := ValidateName(name)
		assert.Error(t, err, name)
		assert.True(t, errors.Is(err, core.ErrInvalidName), name)
	}
}
