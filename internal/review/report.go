package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/codevanta/propgate/internal/checks"
	"github.com/codevanta/propgate/internal/proposal"
)

// Renderer produces standalone HTML review reports for proposals: the
// change, its scores, and the recorded check outcomes, with syntax
// highlighting so reviewers can read the code in a browser.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// NewRenderer creates a report renderer.
func NewRenderer() (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &Renderer{md: md, tmpl: tmpl}, nil
}

// Render returns the full HTML report for a proposal.
func (r *Renderer) Render(p *proposal.Proposal) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(buildMarkdown(p)), &body); err != nil {
		return nil, fmt.Errorf("rendering report markdown: %w", err)
	}

	var out bytes.Buffer
	err := r.tmpl.Execute(&out, reportData{
		Title:   fmt.Sprintf("Proposal %s", shortID(p.ID)),
		Content: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("executing report template: %w", err)
	}
	return out.Bytes(), nil
}

type reportData struct {
	Title   string
	Content template.HTML
}

// buildMarkdown assembles the report source. Code blocks are fenced with the
// file's language so the highlighter picks the right lexer.
func buildMarkdown(p *proposal.Proposal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Proposal %s\n\n", p.ID)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Agent | %s |\n", p.AgentType)
	fmt.Fprintf(&b, "| File | `%s` |\n", p.FilePath)
	fmt.Fprintf(&b, "| Category | %s |\n", orDash(p.ImprovementType))
	fmt.Fprintf(&b, "| Status | %s |\n", p.Status)
	fmt.Fprintf(&b, "| Confidence | %.2f |\n", p.Confidence)
	fmt.Fprintf(&b, "| Quality score | %.2f |\n", p.QualityScore)
	fmt.Fprintf(&b, "| Recommendation | %s |\n", orDash(string(p.Recommendation)))
	if p.ParentID != "" {
		fmt.Fprintf(&b, "| Revises | %s (generation %d) |\n", p.ParentID, p.Generation)
	}
	b.WriteString("\n")

	if p.Reasoning != "" {
		fmt.Fprintf(&b, "## Reasoning\n\n%s\n\n", p.Reasoning)
	}

	lang := languageOf(p.FilePath)
	if p.CodeBefore != "" {
		fmt.Fprintf(&b, "## Before\n\n```%s\n%s\n```\n\n", lang, strings.TrimRight(p.CodeBefore, "\n"))
	}
	fmt.Fprintf(&b, "## After\n\n```%s\n%s\n```\n\n", lang, strings.TrimRight(p.CodeAfter, "\n"))

	writeTestSection(&b, p)
	return b.String()
}

func writeTestSection(b *strings.Builder, p *proposal.Proposal) {
	var outcomes []checks.Outcome
	if p.TestResults != "" {
		json.Unmarshal([]byte(p.TestResults), &outcomes)
	}
	if len(outcomes) == 0 && p.TestOutput == "" {
		return
	}

	b.WriteString("## Test results\n\n")
	if p.TestOutput != "" {
		fmt.Fprintf(b, "%s\n\n", p.TestOutput)
	}
	if len(outcomes) > 0 {
		b.WriteString("| Check | Verdict |\n|---|---|\n")
		for _, o := range outcomes {
			fmt.Fprintf(b, "| %s | %s |\n", o.Type, o.Verdict)
		}
		b.WriteString("\n")
	}
}

// languageOf maps a file path to a fence language hint.
func languageOf(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".py":
		return "python"
	case ".dart":
		return "dart"
	case ".js":
		return "javascript"
	case ".go":
		return "go"
	default:
		return ""
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// reportTemplate is the standalone HTML shell around the rendered report.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 920px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
    table { border-collapse: collapse; margin: 1rem 0; }
    th, td { border: 1px solid #d1d9e0; padding: 0.4rem 0.8rem; text-align: left; }
    pre { padding: 1rem; overflow-x: auto; border-radius: 6px; }
    code { font-family: ui-monospace, "SF Mono", monospace; font-size: 0.9em; }
  </style>
</head>
<body>
{{.Content}}
</body>
</html>
`
