package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bryanwahyu/launchlab/internal/domain/notify"
)

const subject = "Your LaunchLab validation report is ready"

var layout = template.Must(template.New("mail").Parse(`<!doctype html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto; padding: 24px;">
{{.Content}}
<p style="color: #6b7280; font-size: 12px;">You received this because you asked for a validation report on LaunchLab.</p>
</body>
</html>`))

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// markdownEscaper keeps idea names from turning into markup.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", "&lt;", ">", "&gt;", "`", "\\`", "#", `\#`,
)

// textBody is the markdown source; it doubles as the plain-text part.
func textBody(link notify.ReportLink) string {
	name := "your idea"
	if link.IdeaName != "" {
		name = "**" + markdownEscaper.Replace(link.IdeaName) + "**"
	}
	var b strings.Builder
	b.WriteString("# Your validation report is ready\n\n")
	fmt.Fprintf(&b, "We finished the validation roadmap for %s. It scored **%d/100** in the analysis.\n\n", name, link.TotalScore)
	fmt.Fprintf(&b, "[Open your report](%s)\n\n", link.ReportURL)
	b.WriteString("The link is personal and expires after 7 days.\n")
	return b.String()
}

// htmlBody renders textBody through goldmark into the mail layout.
func htmlBody(link notify.ReportLink) (string, error) {
	var content bytes.Buffer
	if err := md.Convert([]byte(textBody(link)), &content); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var out bytes.Buffer
	if err := layout.Execute(&out, struct{ Content template.HTML }{template.HTML(content.String())}); err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return out.String(), nil
}
