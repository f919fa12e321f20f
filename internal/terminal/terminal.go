// Package terminal renders an order feed session to a text terminal.
package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"cafedash/internal/feed"
)

const clearScreen = "\033[H\033[2J"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4848")).Bold(true)
	noticeStyles = map[string]lipgloss.Style{
		"error": errorStyle,
		"info":  lipgloss.NewStyle().Foreground(lipgloss.Color("#1E90FF")),
	}
)

// Display draws every page as a table, newest order first. Rows are
// numbered so commands can refer to them by position.
type Display struct {
	out   io.Writer
	clear bool

	mu   sync.Mutex
	rows []feed.Row
}

func NewDisplay(out io.Writer, clear bool) *Display {
	return &Display{out: out, clear: clear}
}

func (d *Display) Show(page feed.Page) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = page.Rows

	var b strings.Builder
	if d.clear {
		b.WriteString(clearScreen)
	}

	switch page.State {
	case feed.StateLoading:
		b.WriteString(mutedStyle.Render("Loading orders..."))
	case feed.StateError:
		b.WriteString(errorStyle.Render(page.Error))
	default:
		if page.Placeholder != "" {
			b.WriteString(mutedStyle.Render(page.Placeholder))
			break
		}
		b.WriteString(renderTable(page.Rows))
	}
	b.WriteString("\n")

	_, err := io.WriteString(d.out, b.String())
	return err
}

func (d *Display) Notify(level, message string) {
	style, ok := noticeStyles[level]
	if !ok {
		style = mutedStyle
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = fmt.Fprintln(d.out, style.Render(message))
}

// Resolve maps a command argument to an order id. "#3" and "3" pick the
// third row of the last page; anything else is taken as an id.
func (d *Display) Resolve(ref string) string {
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return ref
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 1 || n > len(d.rows) {
		return ref
	}
	return d.rows[n-1].ID
}

func renderTable(rows []feed.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "Customer", "Phone", "Order", "Time", "Status")

	for i, r := range rows {
		status := string(r.Status)
		if r.Saving {
			status += " (saving)"
		}
		t.Row(strconv.Itoa(i+1), r.CustomerName, r.CustomerNumber, r.OrderDetails, r.Time, status)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 5 && row >= 0 && row < len(rows) {
			return cellStyle.Foreground(lipgloss.Color(rows[row].Color))
		}
		return cellStyle
	})

	return t.String()
}

// Bell is the terminal's alert sound.
type Bell struct {
	out io.Writer
}

func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) Prepare(src string) error {
	return nil
}

func (b *Bell) Restart() error {
	_, err := io.WriteString(b.out, "\a")
	return err
}

func (b *Bell) Release() {}
