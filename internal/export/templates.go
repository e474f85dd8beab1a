package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var studySheetTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/studysheet.html")
	if err != nil {
		// Fallback to built-in template if file not found
		studySheetTemplate = template.Must(template.New("studysheet").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	studySheetTemplate = template.Must(template.New("studysheet").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for study-sheet template rendering
type TemplateData struct {
	Title     string
	Content   string
	Category  string
	Author    string
	CreatedAt time.Time
	Answers   []TemplateAnswer
}

// TemplateAnswer holds answer data for the template
type TemplateAnswer struct {
	Author   string
	Step1    string
	Step2    string
	Step3    string
	Verified bool
}

// RenderStudySheetHTML renders the study-sheet template with provided data
func RenderStudySheetHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := studySheetTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .answer { background: #f5f5f5; padding: 1rem; margin: 1rem 0; border-left: 3px solid #333; }
    .verified { border-left-color: #2e7d32; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Category}} | {{.Author}} | {{.CreatedAt.Format "Jan 2, 2006"}}</div>
  <p>{{.Content}}</p>
  {{if .Answers}}
  <h2>Solutions</h2>
  {{range .Answers}}<div class="answer{{if .Verified}} verified{{end}}">
    <p>{{.Step1}}</p>
    {{if .Step2}}<p>{{.Step2}}</p>{{end}}
    {{if .Step3}}<p>{{.Step3}}</p>{{end}}
  </div>{{end}}
  {{end}}
</body>
</html>`
