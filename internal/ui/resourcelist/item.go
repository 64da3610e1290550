package resourcelist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamkonekt/konekt/internal/pagination"
	"github.com/teamkonekt/konekt/internal/theme"
)

// Row is the rendered form of one entity.
type Row struct {
	Title  string
	Status string

	// Badge is a short colored tag before the title, e.g. a priority.
	Badge      string
	BadgeStyle lipgloss.Style

	// Meta is shown dimmed after the title.
	Meta []string

	// Alert is shown in red after the meta, e.g. OVERDUE.
	Alert string

	// Done dims the whole line.
	Done bool
}

// entry wraps an entity so it can be used in a bubbles/list.
type entry[T pagination.Entity] struct {
	value T
	row   Row
}

func (e entry[T]) FilterValue() string { return e.row.Title }

// delegate implements list.ItemDelegate for Row-rendered entries.
type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(interface{ rendered() Row })
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(r.rendered(), index == m.Index()))
}

func (e entry[T]) rendered() Row { return e.row }

func renderRow(r Row, selected bool) string {
	var b strings.Builder
	if r.Status != "" {
		b.WriteString(theme.StatusStyle(r.Status).Render(r.Status))
		b.WriteByte(' ')
	}
	if r.Badge != "" {
		b.WriteString(r.BadgeStyle.Render(r.Badge))
		b.WriteByte(' ')
	}
	b.WriteString(r.Title)
	meta := make([]string, 0, len(r.Meta))
	for _, v := range r.Meta {
		if v != "" {
			meta = append(meta, v)
		}
	}
	if len(meta) > 0 {
		b.WriteString(theme.DueDateStyle.Render("  " + strings.Join(meta, " · ")))
	}
	if r.Alert != "" {
		b.WriteString(theme.OverdueStyle.Render(" " + r.Alert))
	}

	line := b.String()
	if r.Done {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
