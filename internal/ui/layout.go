package ui

import (
	"math"
	"time"

	"github.com/cwarden/nowline/internal/events"
	"github.com/cwarden/nowline/internal/indicator"
)

const (
	headerRows = 2 // title line + day headers
	footerRows = 2 // status line + help line
	timeWidth  = 7 // "08:00 " plus separator
)

// gridLayout is the geometry of one frame: where each slot row and day
// column sits on screen.
type gridLayout struct {
	days        []time.Time
	bounds      indicator.Bounds
	slotMinutes int
	slots       int
	rowsPerSlot int
	rows        int // grid body rows
	dayWidth    int
	width       int
}

func newGridLayout(width, height int, days []time.Time, bounds indicator.Bounds, slotMinutes int) gridLayout {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	span := bounds.End.Minutes() - bounds.Start.Minutes()
	slots := span / slotMinutes
	if span%slotMinutes != 0 {
		slots++
	}
	if slots < 1 {
		slots = 1
	}

	rowsPerSlot := 1
	if avail := height - headerRows - footerRows; avail > slots {
		rowsPerSlot = avail / slots
	}

	dayWidth := 1
	if len(days) > 0 {
		dayWidth = max(1, (width-timeWidth)/len(days))
	}

	return gridLayout{
		days:        days,
		bounds:      bounds,
		slotMinutes: slotMinutes,
		slots:       slots,
		rowsPerSlot: rowsPerSlot,
		rows:        slots * rowsPerSlot,
		dayWidth:    dayWidth,
		width:       width,
	}
}

// top is the screen row of the first grid row.
func (g gridLayout) top() int {
	return headerRows
}

// dayX is the screen column where day i starts.
func (g gridLayout) dayX(i int) int {
	return timeWidth + i*g.dayWidth
}

// slotLabel returns the clock label for grid row r, or "" when r is not the
// first row of a slot.
func (g gridLayout) slotLabel(r int, format string) string {
	if r%g.rowsPerSlot != 0 {
		return ""
	}
	minutes := g.bounds.Start.Minutes() + (r/g.rowsPerSlot)*g.slotMinutes
	t := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format(format)
}

// rowFloor and rowCeil convert a clock time on day into a grid row,
// rounding down and up. Integer math keeps slot boundaries exact.
func (g gridLayout) rowFloor(day, t time.Time) int {
	n, d := g.rowFraction(day, t)
	if n < 0 {
		return -int((-n + d - 1) / d)
	}
	return int(n / d)
}

func (g gridLayout) rowCeil(day, t time.Time) int {
	n, d := g.rowFraction(day, t)
	if n < 0 {
		return -int(-n / d)
	}
	return int((n + d - 1) / d)
}

func (g gridLayout) rowFraction(day, t time.Time) (int64, int64) {
	span := int64(g.bounds.Span())
	if span <= 0 {
		span = 1
	}
	return int64(t.Sub(g.bounds.Start.On(day))) * int64(g.rows), span
}

// nowRow places the "Now" marker: round(percent/100 * rows), clamped to the
// last grid row.
func (g gridLayout) nowRow(percent float64) int {
	row := int(math.Round(percent / 100 * float64(g.rows)))
	if row >= g.rows {
		row = g.rows - 1
	}
	if row < 0 {
		row = 0
	}
	return row
}

// block is an event positioned on the grid.
type block struct {
	event events.Event
	day   int
	row   int // first grid row
	span  int // rows covered, at least 1
	lane  int
	lanes int // lanes in use for the day
}

// x returns the block's screen column and width.
func (b block) x(g gridLayout) (int, int) {
	usable := max(1, g.dayWidth-1) // keep the column separator
	laneWidth := max(1, usable/b.lanes)
	x := g.dayX(b.day) + b.lane*laneWidth
	w := laneWidth
	if b.lane == b.lanes-1 {
		w = usable - b.lane*laneWidth
	}
	return x, max(1, w)
}

// layoutBlocks places events into day columns. An event is shown on the day
// it starts, clipped to that day's window; overlapping events in one day are
// split into lanes greedily in start order.
func (g gridLayout) layoutBlocks(evs []events.Event) []block {
	var out []block
	for i, day := range g.days {
		winStart := g.bounds.Start.On(day)
		winEnd := g.bounds.End.On(day)

		var dayBlocks []block
		for _, ev := range evs {
			if !sameDate(ev.Start, day) || !ev.Overlaps(winStart, winEnd) {
				continue
			}
			start, end := ev.Start, ev.End
			if start.Before(winStart) {
				start = winStart
			}
			if end.After(winEnd) {
				end = winEnd
			}

			row := g.rowFloor(day, start)
			last := g.rowCeil(day, end)
			if last > g.rows {
				last = g.rows
			}
			if row >= g.rows {
				row = g.rows - 1
			}
			span := last - row
			if span < 1 {
				span = 1
			}
			dayBlocks = append(dayBlocks, block{event: ev, day: i, row: row, span: span})
		}

		assignLanes(dayBlocks)
		out = append(out, dayBlocks...)
	}
	return out
}

// assignLanes gives each block the first lane whose previous block ended at
// or before its start row. Lanes are counted per cluster of transitively
// overlapping blocks, so a block that overlaps nothing keeps the full column
// width. Blocks must be in start order.
func assignLanes(blocks []block) {
	var laneEnds []int
	clusterStart, clusterEnd := 0, 0

	closeCluster := func(end int) {
		for j := clusterStart; j < end; j++ {
			blocks[j].lanes = max(1, len(laneEnds))
		}
	}

	for i := range blocks {
		b := &blocks[i]
		if i > clusterStart && b.row >= clusterEnd {
			closeCluster(i)
			clusterStart = i
			laneEnds = laneEnds[:0]
		}

		b.lane = -1
		for l, end := range laneEnds {
			if end <= b.row {
				b.lane = l
				laneEnds[l] = b.row + b.span
				break
			}
		}
		if b.lane < 0 {
			b.lane = len(laneEnds)
			laneEnds = append(laneEnds, b.row+b.span)
		}
		clusterEnd = max(clusterEnd, b.row+b.span)
	}
	closeCluster(len(blocks))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
