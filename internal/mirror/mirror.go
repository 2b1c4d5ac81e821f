// Package mirror regenerates per-entity notes from tracker source data.
//
// Unlike the event upsert path, these notes are fully machine-generated on
// every sync pass, except for the user-editable region between the
// frontmatter and the first generated heading, which is preserved verbatim.
package mirror

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/laguz/internal/document"
)

// Update is one tracker update rendered into the Updates section.
type Update struct {
	Body      string
	Author    string
	URL       string
	CreatedAt time.Time
}

// DocumentLink points to a mirrored tracker document.
type DocumentLink struct {
	Title string
	URL   string
}

// ProjectRef points to a mirrored project note.
type ProjectRef struct {
	Name string
	URL  string
}

// IssueRef is one issue listed on a project note.
type IssueRef struct {
	Identifier string
	Title      string
	URL        string
	State      string
}

// Initiative is the source-of-truth data for one initiative note.
type Initiative struct {
	ID          string
	Name        string
	URL         string
	Status      string
	Health      string
	StartedAt   *string
	CompletedAt *string
	TargetDate  *string
	Owner       string
	Description string
	Content     string
	Documents   []DocumentLink
	Updates     []Update
	Projects    []ProjectRef
}

// Project is the source-of-truth data for one project note.
type Project struct {
	ID          string
	Name        string
	URL         string
	State       string
	Health      string
	Progress    float64
	StartDate   *string
	TargetDate  *string
	Lead        string
	Description string
	Content     string
	Documents   []DocumentLink
	Updates     []Update
	Issues      []IssueRef
}

type initiativeFrontmatter struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	URL         string  `yaml:"url"`
	Status      string  `yaml:"status"`
	Health      string  `yaml:"health"`
	StartedAt   *string `yaml:"startedAt"`
	CompletedAt *string `yaml:"completedAt"`
	TargetDate  *string `yaml:"targetDate"`
	Owner       string  `yaml:"owner"`
}

type projectFrontmatter struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	URL        string  `yaml:"url"`
	State      string  `yaml:"state"`
	Health     string  `yaml:"health"`
	Progress   float64 `yaml:"progress"`
	StartDate  *string `yaml:"startDate"`
	TargetDate *string `yaml:"targetDate"`
	Lead       string  `yaml:"lead"`
}

// RenderInitiative produces the new note text for an initiative, splicing
// in the preserved region of existingText when present. Pass "" for a
// document that does not exist yet: the description and content seed the
// user region on first creation.
func RenderInitiative(existingText string, i Initiative) (string, error) {
	fm, err := frontmatter(initiativeFrontmatter{
		ID: i.ID, Name: i.Name, URL: i.URL, Status: i.Status, Health: i.Health,
		StartedAt: i.StartedAt, CompletedAt: i.CompletedAt, TargetDate: i.TargetDate,
		Owner: i.Owner,
	})
	if err != nil {
		return "", err
	}
	body := strings.Join([]string{
		"### Related Linear Documents:",
		formatDocuments(i.Documents, i.Name),
		"",
		"### Updates:",
		formatUpdates(i.Updates),
		"",
		"### Related Projects:",
		formatProjects(i.Projects),
		"",
	}, "\n")

	if existingText == "" {
		return fm + "\n" + seedRegion(i.Description, i.Content) + body, nil
	}
	return document.Regenerate(existingText, fm, body), nil
}

// RenderProject produces the new note text for a project.
func RenderProject(existingText string, p Project) (string, error) {
	fm, err := frontmatter(projectFrontmatter{
		ID: p.ID, Name: p.Name, URL: p.URL, State: p.State, Health: p.Health,
		Progress: p.Progress, StartDate: p.StartDate, TargetDate: p.TargetDate,
		Lead: p.Lead,
	})
	if err != nil {
		return "", err
	}
	body := strings.Join([]string{
		"### Related Linear Documents:",
		formatDocuments(p.Documents, p.Name),
		"",
		"### Updates:",
		formatUpdates(p.Updates),
		"",
		"### Related Issues:",
		formatIssues(p.Issues),
		"",
	}, "\n")

	if existingText == "" {
		return fm + "\n" + seedRegion(p.Description, p.Content) + body, nil
	}
	return document.Regenerate(existingText, fm, body), nil
}

func frontmatter(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("mirror: marshal frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---", nil
}

// seedRegion builds the initial user region from the entity's own
// description and long-form content. After first creation the region
// belongs to the user and is never regenerated.
func seedRegion(description, content string) string {
	var parts []string
	if strings.TrimSpace(description) != "" {
		parts = append(parts, strings.TrimSpace(description))
	}
	if strings.TrimSpace(content) != "" {
		parts = append(parts, strings.TrimSpace(content))
	}
	if len(parts) == 0 {
		return "\n"
	}
	return "\n" + strings.Join(parts, "\n\n") + "\n\n"
}

// formatUpdates renders updates newest first.
func formatUpdates(updates []Update) string {
	if len(updates) == 0 {
		return "_No updates yet._"
	}
	sorted := make([]Update, len(updates))
	copy(sorted, updates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var lines []string
	for _, u := range sorted {
		author := u.Author
		if author == "" {
			author = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("[%s] - [%s](%s):",
			u.CreatedAt.Format("2006-01-02 15:04"), author, u.URL))
		if body := strings.TrimSpace(u.Body); body != "" {
			lines = append(lines, body)
		}
		lines = append(lines, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func formatDocuments(docs []DocumentLink, parentName string) string {
	if len(docs) == 0 {
		return "_No documents._"
	}
	var lines []string
	for _, d := range docs {
		filename := fmt.Sprintf("%s - (%s)", SanitizeFileName(d.Title), SanitizeFileName(parentName))
		lines = append(lines, fmt.Sprintf("- [[%s]](%s)", filename, d.URL))
	}
	return strings.Join(lines, "\n")
}

func formatProjects(projects []ProjectRef) string {
	if len(projects) == 0 {
		return "_No projects._"
	}
	var lines []string
	for _, p := range projects {
		lines = append(lines, fmt.Sprintf("- [[(Project) %s]](%s)", SanitizeFileName(p.Name), p.URL))
	}
	return strings.Join(lines, "\n")
}

// formatIssues groups issues by workflow state, states sorted by name.
func formatIssues(issues []IssueRef) string {
	if len(issues) == 0 {
		return "_No issues._"
	}
	byState := make(map[string][]IssueRef)
	for _, is := range issues {
		state := is.State
		if state == "" {
			state = "Unknown"
		}
		byState[state] = append(byState[state], is)
	}
	states := make([]string, 0, len(byState))
	for s := range byState {
		states = append(states, s)
	}
	sort.Strings(states)

	var lines []string
	for _, s := range states {
		lines = append(lines, "#### "+s)
		for _, is := range byState[s] {
			lines = append(lines, fmt.Sprintf("- [[%s]](%s) %s", is.Identifier, is.URL, is.Title))
		}
		lines = append(lines, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

var unsafeFileChars = regexp.MustCompile(`[:\*\?"<>|]`)

// SanitizeFileName makes an entity name safe for use in a note file name.
func SanitizeFileName(name string) string {
	s := strings.ReplaceAll(name, "/", "-")
	s = unsafeFileChars.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
