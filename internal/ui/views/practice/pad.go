package practice

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/ui/theme"
)

// The pad mirrors a numeric keypad: one row per affective charge, one
// column per time orientation, so "5" is present/neutral.
var padAffective = [3]domain.Affective{domain.Attachment, domain.Neutral, domain.Aversion}

var padTemporal = [3]domain.Temporal{domain.Past, domain.Present, domain.Future}

func padCategory(key string) (domain.Category, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return domain.Category{}, false
	}
	n := int(key[0] - '1')
	c, err := domain.CategoryAt(padTemporal[n%3], padAffective[n/3])
	if err != nil {
		return domain.Category{}, false
	}
	return c, true
}

var padCell = lipgloss.NewStyle().
	Width(16).
	Align(lipgloss.Center).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Surface1)

// renderPad draws the 3×3 matrix with the counts from a PAHM-named tally.
func renderPad(tally map[string]int) string {
	rows := make([]string, 0, len(padAffective))
	for r, a := range padAffective {
		cells := make([]string, 0, len(padTemporal))
		for col, t := range padTemporal {
			c, err := domain.CategoryAt(t, a)
			if err != nil {
				continue
			}
			style := padCell
			if t == domain.Present {
				style = style.BorderForeground(theme.Green)
			}
			label := fmt.Sprintf("%d %s\n%d", r*3+col+1, c.Name(), tally[c.Name()])
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}
