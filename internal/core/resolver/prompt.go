package resolver

import (
	"strings"
	"text/template"

	"lasrouter/internal/core/catalog"
)

var systemTmpl = template.Must(template.New("system").Funcs(template.FuncMap{"join": strings.Join}).Parse(`You route well-log analysis requests to exactly one supported analysis.

Supported analyses (script | LAS file | tool):
{{- range .Triples}}
- {{.ScriptID}} | {{.InputFileID}} | {{.ToolID}}: {{.Name}}. Keywords: {{join .Keywords ", "}}
{{- end}}

Rules:
- Choose ONLY from the exact literals listed above. Never invent a script, file or tool.
- script, lasFile and tool MUST come from the same line.
- If nothing fits well, choose {{.Default.ScriptID}} | {{.Default.InputFileID}} | {{.Default.ToolID}} with a low confidence.
- Reply with a single JSON object and nothing else:
{"script": "<script>", "lasFile": "<LAS file>", "tool": "<tool>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}
`))

var userTmpl = template.Must(template.New("user").Parse(`Request:
"""
{{.}}
"""`))

// BuildPrompt renders the system prompt that embeds the whole catalog
func BuildPrompt(cat *catalog.Catalog) string {
	var b strings.Builder
	data := struct {
		Triples []catalog.Triple
		Default catalog.Triple
	}{cat.Triples(), cat.Default()}
	if err := systemTmpl.Execute(&b, data); err != nil {
		panic("resolver: render system prompt: " + err.Error())
	}
	return b.String()
}

// UserPrompt wraps the request text for the user turn
func UserPrompt(text string) string {
	var b strings.Builder
	_ = userTmpl.Execute(&b, strings.TrimSpace(text))
	return b.String()
}
