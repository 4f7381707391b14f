package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/mitchellh/colorstring"
	"golang.org/x/term"
)

// Console is everything the CLI prints or asks. The codec packages never
// touch it.
type Console interface {
	// Info prints message behind a green [symbol] marker.
	Info(symbol string, message string)
	// Warn prints message behind a yellow [!] marker.
	Warn(message string)
	// Error prints message behind a red [X] marker on the error stream.
	Error(message string)
	// Confirm asks a yes/no question unless assumeYes is set. An empty
	// answer counts as yes.
	Confirm(message string, assumeYes bool) error
}

type terminalConsole struct {
	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader
	colors colorstring.Colorize
}

// NewConsole builds a Console over the given streams. Colors are used only
// when out is a terminal.
func NewConsole(out io.Writer, errOut io.Writer, in io.Reader) Console {
	return &terminalConsole{
		out:    out,
		errOut: errOut,
		in:     bufio.NewReader(in),
		colors: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !isTerminal(out),
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint wraps text in a color without passing text through the color parser.
func (c *terminalConsole) paint(color string, text string) string {
	return c.colors.Color("["+color+"]") + text + c.colors.Color("[reset]")
}

func (c *terminalConsole) Info(symbol string, message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.paint("bold", c.paint("green", "["+symbol+"]")), c.paint("light_green", message))
}

func (c *terminalConsole) Warn(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.paint("bold", c.paint("yellow", "[!]")), c.paint("light_yellow", message))
}

func (c *terminalConsole) Error(message string) {
	fmt.Fprintf(c.errOut, "%s %s\n", c.paint("bold", c.paint("red", "[X]")), c.paint("light_red", message))
}

func (c *terminalConsole) Confirm(message string, assumeYes bool) error {
	if assumeYes {
		return nil
	}

	const answer = "y"
	fmt.Fprintf(c.out, "%s [%s]: ", message, strings.ToUpper(answer))

	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return imagefyerrors.ErrIO.WithDetail("op", "read confirmation").WithCause(err)
	}

	input := strings.ToLower(strings.TrimSpace(line))
	if input != answer && input != "" {
		return imagefyerrors.ErrConfirmationDeclined
	}
	return nil
}
