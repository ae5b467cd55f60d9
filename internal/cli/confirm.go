package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// terminalConfirmer asks on the terminal. Without a terminal every
// question is answered with no.
type terminalConfirmer struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

func newTerminalConfirmer() *terminalConfirmer {
	fd := os.Stdin.Fd()
	return &terminalConfirmer{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (c *terminalConfirmer) Confirm(question string, answer func(bool)) {
	answer(c.ask(question))
}

func (c *terminalConfirmer) ask(question string) bool {
	fmt.Fprintln(c.out, color.YellowString(question))
	if !c.interactive {
		fmt.Fprintln(c.out, "Not a terminal, answering no.")
		return false
	}
	fmt.Fprint(c.out, "[y/N] ")
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
