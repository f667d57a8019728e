package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v3"
	"github.com/gdamore/tcell/v3/color"
	"github.com/leaanthony/go-ansi-parser"
	"github.com/rs/zerolog/log"
)

// DrawBytesMultiline renders ANSI-coloured output starting at (start_x, start_y). When the
// output is taller than the screen the last lines are shown.
func DrawBytesMultiline(s tcell.Screen, start_x, start_y int, buffer []byte) {
	parsed, err := ansi.Parse(string(buffer), ansi.WithIgnoreInvalidCodes())
	if err != nil {
		log.Error().Err(err).Msg("failed to parse ANSI")
		return
	}
	max_x, _ := s.Size()
	drawStyledText(s, start_x, start_y, fitToWidth(start_x, max_x, parsed))
}

func drawStyledText(s tcell.Screen, x_start, y_start int, lines [][]*ansi.StyledText) {
	_, y_max := s.Size()
	y_count := y_max - y_start
	if y_count <= 0 {
		return
	}
	idx_base := max(len(lines)-y_count, 0)
	for y_offset := range y_count {
		idx := idx_base + y_offset
		if idx >= len(lines) {
			return
		}
		x := x_start
		for _, seg := range lines[idx] {
			style := convertStyle(seg)
			for _, r := range seg.Label {
				s.SetContent(x, y_start+y_offset, r, nil, style)
				x++
			}
		}
	}
}

// fitToWidth splits parsed segments into screen lines, breaking on newlines and wrapping
// at max_x.
func fitToWidth(start_x, max_x int, parsed []*ansi.StyledText) [][]*ansi.StyledText {
	lines := make([][]*ansi.StyledText, 0)
	current_line := make([]*ansi.StyledText, 0)
	cur_label := strings.Builder{}
	x := start_x
	flush := func(section *ansi.StyledText) {
		if cur_label.Len() == 0 {
			return
		}
		current_line = append(current_line, &ansi.StyledText{
			Label:      cur_label.String(),
			FgCol:      section.FgCol,
			BgCol:      section.BgCol,
			Style:      section.Style,
			ColourMode: section.ColourMode,
			Offset:     section.Offset,
			Len:        cur_label.Len(),
		})
		cur_label.Reset()
	}
	for _, section := range parsed {
		for _, r := range section.Label {
			if r == '\n' {
				flush(section)
				lines = append(lines, current_line)
				current_line = make([]*ansi.StyledText, 0)
				x = start_x
				continue
			}
			if x >= max_x {
				flush(section)
				lines = append(lines, current_line)
				current_line = make([]*ansi.StyledText, 0)
				x = start_x
			}
			cur_label.WriteRune(r)
			x++
		}
		flush(section)
	}
	if len(current_line) > 0 {
		lines = append(lines, current_line)
	}
	return lines
}

func StripColorCodes(buf []byte) string {
	result, err := ansi.Cleanse(string(buf), ansi.WithIgnoreInvalidCodes())
	if err != nil {
		return fmt.Sprintf("Failed to strip color codes: %v", err)
	}
	return result
}
func convertStyle(t *ansi.StyledText) tcell.Style {
	style := tcell.StyleDefault
	if t == nil {
		return style
	}
	if t.FgCol != nil {
		style = style.Foreground(convertStyleColor(t.FgCol))
	}
	if t.BgCol != nil {
		style = style.Background(convertStyleColor(t.BgCol))
	}
	if t.Blinking() {
		style = style.Blink(true)
	}
	if t.Bold() {
		style = style.Bold(true)
	}
	if t.Faint() {
		style = style.Dim(true)
	}
	if t.Italic() {
		style = style.Italic(true)
	}
	if t.Strikethrough() {
		style = style.StrikeThrough(true)
	}
	if t.Underlined() {
		style = style.Underline(true)
	}
	return style
}
func convertStyleColor(c *ansi.Col) color.Color {
	result := color.GetColor(strings.ToLower(c.Name))
	if result.Valid() {
		return result
	}
	return color.NewRGBColor(
		int32(c.Rgb.R),
		int32(c.Rgb.G),
		int32(c.Rgb.B),
	)
}
