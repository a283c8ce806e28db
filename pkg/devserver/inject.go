package devserver

import (
	"bytes"
)

// ScriptTag loads the live-reload client.
const ScriptTag = `<script src="` + ScriptPath + `"></script>`

var bodyClose = []byte("</body>")

// InjectScript inserts ScriptTag before the last closing body tag, or appends
// it when the document has none. Generated pages leave body open.
func InjectScript(html []byte) []byte {
	tag := []byte(ScriptTag)
	i := bytes.LastIndex(bytes.ToLower(html), bodyClose)
	if i < 0 {
		out := make([]byte, 0, len(html)+len(tag)+1)
		out = append(out, html...)
		if len(out) > 0 && out[len(out)-1] != '\n' {
			out = append(out, '\n')
		}
		return append(out, tag...)
	}

	out := make([]byte, 0, len(html)+len(tag))
	out = append(out, html[:i]...)
	out = append(out, tag...)
	return append(out, html[i:]...)
}
