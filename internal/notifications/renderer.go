package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"title":          titleCase,
	"upper":          strings.ToUpper,
	"lower":          strings.ToLower,
	"formatTime":     formatTime,
	"escapeHTML":     html.EscapeString,
	"escapeMarkdown": escapeMarkdown,
	"inlineCode":     inlineCode,
}

var (
	markdownEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "|", `\|`,
		"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`, "~", `\~`,
		"\r\n", " ", "\n", " ", "\r", " ",
	)
	// A mention starts at the beginning of the text or after whitespace.
	mentionPattern  = regexp.MustCompile(`(^|\s)@`)
	backtickPattern = regexp.MustCompile("`+")
)

// Renderer turns payloads into channel-specific message bodies. Templates
// are named "<channel>_<message type>.tmpl".
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	files, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		name := strings.TrimSuffix(f.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, path.Join("templates", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		// ParseFS names the template after the file; execute that one.
		r.templates[name] = tmpl.Lookup(f.Name())
	}
	return r, nil
}

// escapeMarkdown makes user input inert inside a Mattermost markdown table:
// formatting characters are backslash-escaped, line breaks become spaces and
// @mentions are broken with a zero-width space.
func escapeMarkdown(s string) string {
	return mentionPattern.ReplaceAllString(markdownEscaper.Replace(s), "${1}@\u200b")
}

// inlineCode wraps s in a markdown code span whose fence is longer than any
// backtick run inside s.
func inlineCode(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	longest := 0
	for _, run := range backtickPattern.FindAllString(s, -1) {
		longest = max(longest, len(run))
	}
	if longest == 0 {
		return "`" + s + "`"
	}
	fence := strings.Repeat("`", longest+1)
	return fence + " " + s + " " + fence
}

// Render returns the subject and body for payload on the given channel.
func (r *Renderer) Render(channel domain.ChannelType, payload NotificationPayload) (subject, body string, err error) {
	name := string(channel) + "_" + string(payload.MessageType)
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return subjectFor(payload), strings.TrimSpace(buf.String()), nil
}

func subjectFor(payload NotificationPayload) string {
	if payload.MessageType == MessageTypeUserRegistered {
		return "[New user] " + titleCase(payload.User.Name)
	}
	return "[Notification]"
}

// titleCase builds a Caser per call; a Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}
