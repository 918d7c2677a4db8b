// Package boardview renders a board snapshot as text columns and computes the
// pointer regions that the drag controller hit-tests against.
package boardview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

const (
	defaultColumnWidth = 28
	columnGap          = 1
	headerRows         = 2
	cardRows           = 3
)

// Snapshot is the render input for one board.
type Snapshot struct {
	Stages     domain.StageSet
	Leads      []domain.Lead
	Selected   []domain.LeadID
	SelectMode bool
	Status     string
}

// Options tunes rendering.
type Options struct {
	ColumnWidth int
	// Stages limits output to these stages; empty renders every stage.
	Stages []domain.StageID
}

// FromBoard captures the current state of a board session.
func FromBoard(b *app.Board) Snapshot {
	return Snapshot{
		Stages:     b.Stages(),
		Leads:      b.Store().List(),
		Selected:   b.Selection().IDs(),
		SelectMode: b.Selection().SelectMode(),
	}
}

type column struct {
	stage domain.Stage
	leads []domain.Lead
}

// columns groups leads by stage in stage order, priority-sorted within each stage.
func columns(s Snapshot, opts Options) []column {
	byStage := make(map[domain.StageID][]domain.Lead)
	for _, lead := range s.Leads {
		byStage[lead.Stage] = append(byStage[lead.Stage], lead)
	}
	var only map[domain.StageID]struct{}
	if len(opts.Stages) > 0 {
		only = make(map[domain.StageID]struct{}, len(opts.Stages))
		for _, id := range opts.Stages {
			only[domain.NormalizeStageID(string(id))] = struct{}{}
		}
	}
	out := make([]column, 0, len(s.Stages.Stages()))
	for _, stage := range s.Stages.Stages() {
		if only != nil {
			if _, ok := only[stage.ID]; !ok {
				continue
			}
		}
		leads := byStage[stage.ID]
		domain.SortByPriority(leads)
		out = append(out, column{stage: stage, leads: leads})
	}
	return out
}

func (o Options) width() int {
	if o.ColumnWidth < 12 {
		return defaultColumnWidth
	}
	return o.ColumnWidth
}

// Render draws the board as side-by-side bordered columns.
func Render(s Snapshot, opts Options) string {
	width := opts.width()
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	colStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(columnGap).
		Width(width)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	selected := make(map[domain.LeadID]struct{}, len(s.Selected))
	for _, id := range s.Selected {
		selected[id] = struct{}{}
	}

	inner := max(1, width-4)
	views := make([]string, 0, len(s.Stages.Stages()))
	for _, col := range columns(s, opts) {
		lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", col.stage.Label, len(col.leads))), ""}
		if len(col.leads) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		for idx, lead := range col.leads {
			_, isSelected := selected[lead.ID]
			prefix := "  "
			if isSelected {
				prefix = "* "
			}
			title := prefix + truncate(fmt.Sprintf("#%d %s", lead.ID, lead.Name), inner-2)
			if isSelected {
				title = selectedStyle.Render(title)
			}
			lines = append(lines, title, "  "+subStyle.Render(truncate(cardDetail(lead), inner-2)))
			if idx < len(col.leads)-1 {
				lines = append(lines, "")
			}
		}
		views = append(views, colStyle.Render(strings.Join(lines, "\n")))
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render(string(s.Stages.Board()))
	header += statusStyle.Render(fmt.Sprintf("  leads: %d", len(s.Leads)))
	if s.SelectMode {
		header += statusStyle.Render(fmt.Sprintf("  [select] %d selected", len(s.Selected)))
	}
	sections := []string{header, lipgloss.JoinHorizontal(lipgloss.Top, views...)}
	if status := strings.TrimSpace(s.Status); status != "" {
		sections = append(sections, statusStyle.Render(status))
	}
	return strings.Join(sections, "\n")
}

// cardDetail summarizes contact, assignment and priority on one line.
func cardDetail(lead domain.Lead) string {
	parts := make([]string, 0, 4)
	switch {
	case lead.Email != "":
		parts = append(parts, lead.Email)
	case lead.Phone != "":
		parts = append(parts, lead.Phone)
	default:
		parts = append(parts, "no contact")
	}
	if lead.AssignedTo != "" {
		parts = append(parts, "@"+lead.AssignedTo)
	}
	if lead.Priority != "" {
		parts = append(parts, lead.Priority)
	}
	if lead.IsBounty {
		parts = append(parts, "bounty")
	}
	return strings.Join(parts, " · ")
}

// Layout holds the pointer regions of one rendered board, in terminal cells.
type Layout struct {
	Stages map[domain.StageID]app.Rect
	Cards  map[domain.LeadID]app.Rect
	order  []domain.StageID
	cards  []domain.LeadID
}

// ComputeLayout mirrors Render's geometry: one column per stage, a two-row header,
// and a three-row slot per card.
func ComputeLayout(s Snapshot, opts Options) Layout {
	width := float64(opts.width())
	cols := columns(s, opts)
	height := 0
	for _, col := range cols {
		height = max(height, headerRows+max(1, len(col.leads))*cardRows)
	}

	layout := Layout{
		Stages: make(map[domain.StageID]app.Rect, len(cols)),
		Cards:  make(map[domain.LeadID]app.Rect),
	}
	for idx, col := range cols {
		x := float64(idx) * (width + columnGap)
		layout.Stages[col.stage.ID] = app.Rect{X: x, Y: 0, W: width, H: float64(height)}
		layout.order = append(layout.order, col.stage.ID)
		for row, lead := range col.leads {
			y := float64(headerRows + row*cardRows)
			layout.Cards[lead.ID] = app.Rect{X: x, Y: y, W: width, H: cardRows - 1}
			layout.cards = append(layout.cards, lead.ID)
		}
	}
	return layout
}

// Register replaces the drag controller's targets with this layout's regions.
func (l Layout) Register(d *app.DragController) {
	d.ClearTargets()
	for _, stage := range l.order {
		d.RegisterStageTarget(stage, l.Stages[stage])
	}
	for _, id := range l.cards {
		d.RegisterCardTarget(id, l.Cards[id])
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}
