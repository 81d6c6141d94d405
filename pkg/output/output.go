// Package output renders command results as text, tables or JSON.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

// Out is where everything is written; tests swap it for a buffer
var Out io.Writer = color.Output

var override OutputFormat

// SetFormat overrides output.format for this process (the --output flag)
func SetFormat(f string) error {
	if f == "" {
		override = ""
		return nil
	}
	if !ValidateOutputFormat(f) {
		return fmt.Errorf("invalid output format %q (json, table, text)", f)
	}
	override = OutputFormat(f)
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() OutputFormat {
	if override != "" {
		return override
	}
	switch config.GetString("output.format") {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// JSON writes data as indented JSON regardless of the configured format
func JSON(data interface{}) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(Out, string(b))
	return err
}

// Record prints ordered key/value pairs, or the raw value in JSON mode
func Record(raw interface{}, fields [][2]string) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return JSON(raw)
	case FormatTable:
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f[0], f[1]})
		}
		Table([]string{"FIELD", "VALUE"}, rows)
		return nil
	default:
		bold := color.New(color.Bold)
		for _, f := range fields {
			bold.Fprint(Out, f[0]+": ")
			fmt.Fprintln(Out, f[1])
		}
		return nil
	}
}

func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	for i, h := range headers {
		bold.Fprint(w, h)
		if i < len(headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func PrintSuccess(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(Out, msg+"\n", args...)
}

func PrintError(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(Out, "Error: "+msg+"\n", args...)
}

func PrintInfo(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(Out, msg+"\n", args...)
}

func PrintWarning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(Out, "Warning: "+msg+"\n", args...)
}

// Domain renderers

// AuthorName shows soft-deleted accounts as "Deleted user"
func AuthorName(u api.PublicUser) string {
	if u.Deleted {
		return "Deleted user"
	}
	return "@" + u.Pseudonym
}

// Ago formats t relative to now, falling back to a date after a week
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func scopeLabel(p api.Post) string {
	switch {
	case p.Group != nil:
		return "group:" + p.Group.Name
	case p.Page != nil:
		return "page:" + p.Page.Name
	default:
		return p.Scope
	}
}

// Posts renders a feed page
func Posts(posts []api.Post, now time.Time) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return JSON(posts)
	case FormatTable:
		rows := make([][]string, 0, len(posts))
		for _, p := range posts {
			mark := ""
			if p.Bookmarked {
				mark = "*"
			}
			rows = append(rows, []string{
				p.ID, AuthorName(p.Author), scopeLabel(p), truncate(postText(p), 48),
				fmt.Sprint(p.ReactionCount), fmt.Sprint(p.CommentCount), mark, Ago(p.CreatedAt, now),
			})
		}
		Table([]string{"ID", "AUTHOR", "SCOPE", "TEXT", "REACTIONS", "COMMENTS", "SAVED", "AGE"}, rows)
		return nil
	default:
		for i, p := range posts {
			if i > 0 {
				fmt.Fprintln(Out)
			}
			writePost(p, now)
		}
		return nil
	}
}

// Post renders a single post with its counts
func Post(p api.Post, now time.Time) error {
	if GetOutputFormat() == FormatJSON {
		return JSON(p)
	}
	writePost(p, now)
	return nil
}

func postText(p api.Post) string {
	if p.Type == "reshare" && p.Text == "" && p.Original != nil {
		return "↻ " + p.Original.Text
	}
	return p.Text
}

func writePost(p api.Post, now time.Time) {
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	bold.Fprint(Out, AuthorName(p.Author))
	faint.Fprintf(Out, " · %s · %s · %s\n", scopeLabel(p), Ago(p.CreatedAt, now), p.ID)
	if p.Text != "" {
		fmt.Fprintln(Out, p.Text)
	}
	if p.ImageURL != "" {
		faint.Fprintln(Out, "[image] "+p.ImageURL)
	}
	if p.Type == "reshare" {
		switch {
		case p.Original != nil:
			faint.Fprintf(Out, "  ↻ %s: %s\n", AuthorName(p.Original.Author), truncate(p.Original.Text, 80))
		case p.OriginalUnavailable:
			faint.Fprintln(Out, "  ↻ original post is no longer available")
		}
	}
	if p.FactCheck != nil && p.FactCheck.Verdict != "" {
		FactCheckPill(p.FactCheck.Verdict)
	}

	var counts []string
	for _, t := range api.ReactionTypes {
		if n := p.Reactions[t]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", t, n))
		}
	}
	line := fmt.Sprintf("%d reactions · %d comments · %d shares", p.ReactionCount, p.CommentCount, p.ShareCount)
	if len(counts) > 0 {
		line += " (" + strings.Join(counts, ", ") + ")"
	}
	if p.MyReaction != "" {
		line += " · you: " + p.MyReaction
	}
	if p.Bookmarked {
		line += " · saved"
	}
	if p.ExpiresAt != nil {
		line += " · expires " + p.ExpiresAt.Local().Format("Jan 2 15:04")
	}
	faint.Fprintln(Out, line)
}

// FactCheckPill prints a coloured verdict label
func FactCheckPill(verdict string) {
	c := color.New(color.FgYellow)
	switch verdict {
	case "true":
		c = color.New(color.FgGreen)
	case "false":
		c = color.New(color.FgRed)
	case "opinion", "unverified", "satire":
		c = color.New(color.Faint)
	}
	c.Fprintf(Out, "[fact-check: %s]\n", verdict)
}

func Comments(comments []api.Comment, now time.Time) error {
	if GetOutputFormat() == FormatJSON {
		return JSON(comments)
	}
	faint := color.New(color.Faint)
	for _, c := range comments {
		color.New(color.Bold).Fprint(Out, AuthorName(c.Author))
		faint.Fprintf(Out, " %s\n", Ago(c.CreatedAt, now))
		fmt.Fprintln(Out, "  "+c.Text)
	}
	return nil
}

func Notifications(list []api.Notification, now time.Time) error {
	if GetOutputFormat() == FormatJSON {
		return JSON(list)
	}
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		state := ""
		if !n.Read {
			state = "new"
		}
		rows = append(rows, []string{n.ID, n.Type, truncate(n.Message, 60), state, Ago(n.CreatedAt, now)})
	}
	Table([]string{"ID", "TYPE", "MESSAGE", "", "AGE"}, rows)
	return nil
}

// Messages prints a conversation; self is the caller's user ID
func Messages(msgs []api.Message, self, peer string, now time.Time) error {
	if GetOutputFormat() == FormatJSON {
		return JSON(msgs)
	}
	faint := color.New(color.Faint)
	for _, m := range msgs {
		who := peer
		c := color.New(color.FgCyan)
		if m.SenderID == self {
			who = "you"
			c = color.New(color.FgGreen)
		}
		c.Fprint(Out, who)
		faint.Fprintf(Out, " %s\n", Ago(m.CreatedAt, now))
		fmt.Fprintln(Out, "  "+m.Text)
	}
	return nil
}
