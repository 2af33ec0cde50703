package prompts

import "embed"

//go:embed templates/*.txt.tmpl
var templatesFS embed.FS
