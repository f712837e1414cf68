package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when a prompt reached the end of its input.
var ErrNoInput = errors.New("no input")

// Prompter asks the user for values on the terminal.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() ([]byte, error)
}

// NewPrompter creates a Prompter reading in and writing prompts to out. When in is
// a terminal, secrets are read without echo.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.secret = func() ([]byte, error) { return term.ReadPassword(fd) }
	}

	return p
}

// Line prompts for one line of input.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	return p.readLine()
}

// Secret prompts for a value that must not be echoed.
func (p *Prompter) Secret(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	if p.secret == nil {
		return p.readLine()
	}

	value, err := p.secret()

	fmt.Fprintln(p.out)

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return string(value), nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}

		return "", fmt.Errorf("read line: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
