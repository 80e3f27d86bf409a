package monitor

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal runs the monitor with line editing and history when the input
// is a terminal. Otherwise the input is read as a command script.
func (mon *Monitor) Terminal(input *os.File, output *os.File) (err error) {
	fd := int(input.Fd())
	if !term.IsTerminal(fd) {
		return mon.Serve(input, output, false)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, state)

	screen := struct {
		io.Reader
		io.Writer
	}{input, output}

	terminal := term.NewTerminal(screen, PROMPT_TEXT)
	if width, height, err := term.GetSize(fd); err == nil {
		terminal.SetSize(width, height)
	}

	mon.output = terminal
	err = mon.serve(terminal.ReadLine)

	return
}
