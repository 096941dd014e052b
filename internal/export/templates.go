package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}
	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(reportTemplateHTML))
}

// TemplateData holds data for report template rendering.
type TemplateData struct {
	Title          string
	GeneratedAt    time.Time
	RequestedBy    string
	TotalIssues    int
	ActiveUsers    int
	ResolvedIssues int
	Issues         []ReportIssue
}

// RenderReportHTML renders the report template with provided data.
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .stats { display: flex; gap: 1rem; margin-bottom: 2rem; }
    .stat-box { background: #f5f5f5; padding: 1rem; border-left: 3px solid #333; flex: 1; }
    table { width: 100%; border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: 0.5rem; text-align: left; }
    th { background: #f5f5f5; }
    .status { text-transform: uppercase; font-size: 0.8em; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">Generated {{formatDate .GeneratedAt "Jan 2, 2006 15:04"}} for {{.RequestedBy}}</div>
  <div class="stats">
    <div class="stat-box"><h4>Total Issues</h4><p>{{.TotalIssues}}</p></div>
    <div class="stat-box"><h4>Active Users</h4><p>{{.ActiveUsers}}</p></div>
    <div class="stat-box"><h4>Resolved Issues</h4><p>{{.ResolvedIssues}}</p></div>
  </div>
  <table>
    <tr><th>#</th><th>Issue</th><th>Description</th><th>Status</th><th>Upvotes</th><th>Author</th><th>Date</th></tr>
    {{range .Issues}}
    <tr>
      <td>{{.ID}}</td>
      <td>{{.Title}}</td>
      <td>{{.Description}}</td>
      <td class="status">{{lower .Status}}</td>
      <td>{{.Upvotes}}</td>
      <td>{{.Author}}</td>
      <td>{{formatDate .Date "2006-01-02"}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`
