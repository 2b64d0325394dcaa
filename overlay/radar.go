package overlay

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

var (
	styleFrame  = tcell.StyleDefault.Foreground(tcell.NewHexColor(0x9aa0b2))
	styleHeader = tcell.StyleDefault.Foreground(tcell.NewHexColor(0xe7e7eb)).Background(tcell.NewHexColor(0x181c26))
	stylePoint  = tcell.StyleDefault.Foreground(tcell.NewHexColor(0xff6b6b)).Bold(true)
	styleCenter = tcell.StyleDefault.Foreground(tcell.NewHexColor(0x2fb4ad))
)

// Radar draws points onto a terminal screen, scaling the reference
// resolution to the terminal grid. Row 0 is a header line.
type Radar struct {
	screen tcell.Screen
	frames uint64
}

// NewRadar takes ownership of an initialized screen.
func NewRadar(screen tcell.Screen) *Radar {
	screen.HideCursor()
	screen.Clear()
	return &Radar{screen: screen}
}

// NewTerminalRadar opens the controlling terminal.
func NewTerminalRadar() (*Radar, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	return NewRadar(screen), nil
}

// Cell maps a reference-screen point to a terminal cell inside the frame.
// ok is false for points outside the reference screen.
func Cell(p Point, refW, refH, cols, rows int) (x, y int, ok bool) {
	if refW <= 0 || refH <= 0 || p.X < 0 || p.Y < 0 || p.X > refW || p.Y > refH {
		return 0, 0, false
	}

	innerW := cols - 2
	innerH := rows - 3 // header, top and bottom border
	if innerW <= 0 || innerH <= 0 {
		return 0, 0, false
	}

	x = 1 + p.X*(innerW-1)/refW
	y = 2 + p.Y*(innerH-1)/refH
	return x, y, true
}

func (r *Radar) Draw(points []Point, refW, refH int) error {
	r.frames++
	r.screen.Clear()

	cols, rows := r.screen.Size()
	drawText(r.screen, 0, 0, cols, styleHeader, fmt.Sprintf(" memsweep  %d objects  frame %d ", len(points), r.frames))
	drawBox(r.screen, 0, 1, cols-1, rows-1)

	if cx, cy, ok := Cell(Point{refW / 2, refH / 2}, refW, refH, cols, rows); ok {
		r.screen.SetContent(cx, cy, '+', nil, styleCenter)
	}

	for _, p := range points {
		x, y, ok := Cell(p, refW, refH, cols, rows)
		if !ok {
			continue
		}
		r.screen.SetContent(x, y, '●', nil, stylePoint)
	}

	r.screen.Show()
	return nil
}

func (r *Radar) Close() error {
	r.screen.Fini()
	return nil
}

func drawText(s tcell.Screen, x, y, width int, style tcell.Style, text string) {
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(text) {
			ch = rune(text[i])
		}
		s.SetContent(x+i, y, ch, nil, style)
	}
}

func drawBox(s tcell.Screen, x1, y1, x2, y2 int) {
	if x2 <= x1 || y2 <= y1 {
		return
	}
	for x := x1 + 1; x < x2; x++ {
		s.SetContent(x, y1, tcell.RuneHLine, nil, styleFrame)
		s.SetContent(x, y2, tcell.RuneHLine, nil, styleFrame)
	}
	for y := y1 + 1; y < y2; y++ {
		s.SetContent(x1, y, tcell.RuneVLine, nil, styleFrame)
		s.SetContent(x2, y, tcell.RuneVLine, nil, styleFrame)
	}
	s.SetContent(x1, y1, tcell.RuneULCorner, nil, styleFrame)
	s.SetContent(x2, y1, tcell.RuneURCorner, nil, styleFrame)
	s.SetContent(x1, y2, tcell.RuneLLCorner, nil, styleFrame)
	s.SetContent(x2, y2, tcell.RuneLRCorner, nil, styleFrame)
}
