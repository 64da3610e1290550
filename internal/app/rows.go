package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/theme"
	"github.com/teamkonekt/konekt/internal/ui/detail"
	"github.com/teamkonekt/konekt/internal/ui/resourcelist"
)

const titleWidth = 60

func ago(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// firstLine shortens multi-line text for a single list row.
func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(s); len(r) > titleWidth {
		return string(r[:titleWidth-1]) + "…"
	}
	return s
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func reportRow(now func() time.Time) func(model.Report) resourcelist.Row {
	return func(r model.Report) resourcelist.Row {
		meta := []string{r.EmployeeName, ago(r.CreatedAt, now())}
		if r.AttendedByName != "" {
			meta = append(meta, "attended by "+r.AttendedByName)
		}
		return resourcelist.Row{
			Title:  firstLine(r.Message),
			Status: r.Status,
			Meta:   meta,
			Done:   r.Status == model.ReportResolved,
		}
	}
}

func reportBody(r model.Report) string {
	return detail.Fields(
		"Status", r.Status,
		"Filed by", r.EmployeeName,
		"Phone", r.EmployeePhone,
		"Filed", stamp(&r.CreatedAt),
		"Attended by", r.AttendedByName,
		"Attended", stamp(r.AttendedAt),
		"Resolved", stamp(r.ResolvedAt),
	) + "\n\n" + r.Message
}

func taskRow(now func() time.Time) func(model.Task) resourcelist.Row {
	return func(t model.Task) resourcelist.Row {
		row := resourcelist.Row{
			Title:      firstLine(t.Title),
			Status:     t.Status,
			Badge:      t.Priority,
			BadgeStyle: theme.PriorityStyle(t.Priority),
			Done:       t.Status == model.TaskCompleted,
		}
		if t.DueDate != "" {
			row.Meta = append(row.Meta, "due "+t.DueDate)
		}
		if t.AssignedToName != "" {
			row.Meta = append(row.Meta, t.AssignedToName)
		}
		if t.IsOverdue(now()) {
			row.Alert = "OVERDUE"
		}
		return row
	}
}

func taskBody(t model.Task) string {
	return detail.Fields(
		"Status", t.Status,
		"Priority", t.Priority,
		"Due", t.DueDate,
		"Assigned to", t.AssignedToName,
		"Assigned by", t.ManagerName,
		"Created", stamp(&t.CreatedAt),
		"Completed", stamp(t.CompletedAt),
	) + "\n\n" + t.Description
}

// announcementRow marks the announcements the viewer has noted.
// employeeID is 0 for managers, who see the noted count instead.
func announcementRow(now func() time.Time, employeeID func() int64) func(model.Announcement) resourcelist.Row {
	return func(a model.Announcement) resourcelist.Row {
		row := resourcelist.Row{
			Title: firstLine(a.Title),
			Meta:  []string{a.Manager, ago(a.CreatedAt, now())},
		}
		id := employeeID()
		switch {
		case id == 0:
			row.Meta = append(row.Meta, fmt.Sprintf("%d noted", a.NotedCount))
		case a.IsNotedBy(id):
			row.Status = model.StatusNoted
			row.Done = true
		default:
			row.Alert = "NEW"
		}
		return row
	}
}

func announcementBody(a model.Announcement) string {
	return detail.Fields(
		"From", a.Manager,
		"Posted", stamp(&a.CreatedAt),
		"Noted by", fmt.Sprintf("%d", a.NotedCount),
	) + "\n\n" + a.Content
}

func suggestionRow(now func() time.Time) func(model.Suggestion) resourcelist.Row {
	return func(s model.Suggestion) resourcelist.Row {
		return resourcelist.Row{
			Title:  firstLine(s.Message),
			Status: s.Status,
			Meta:   []string{s.EmployeeName, ago(s.CreatedAt, now())},
			Done:   s.Status == model.SuggestionArchived,
		}
	}
}

func suggestionBody(s model.Suggestion) string {
	return detail.Fields(
		"Status", s.Status,
		"From", s.EmployeeName,
		"Sent", stamp(&s.CreatedAt),
	) + "\n\n" + s.Message
}

func employeeRow(e model.Employee) resourcelist.Row {
	return resourcelist.Row{
		Title: e.FullName(),
		Meta:  []string{e.Email, e.Role},
	}
}

func employeeBody(e model.Employee) string {
	return detail.Fields(
		"Email", e.Email,
		"Role", e.Role,
		"Phone", e.PhoneNumber,
	)
}

// viewLabel names the task and suggestion views.
func viewLabel(v string) string {
	switch v {
	case "":
		return "all"
	case "due/day":
		return "due today"
	case "due/week":
		return "due this week"
	case "due/month":
		return "due this month"
	}
	return strings.ToLower(v)
}
