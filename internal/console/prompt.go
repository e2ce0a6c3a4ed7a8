package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"wmtheme/internal/apperr"
)

// ErrNotInteractive is returned when a question needs an answer but stdin
// is not a terminal.
var ErrNotInteractive error = &apperr.Friendly{
	Code:    "CONSOLE_NOT_INTERACTIVE",
	Message: "confirmation required but stdin is not a terminal; rerun with --noconfirm",
}

// ErrNoChoice is returned when a choice is needed but stdin is not a
// terminal.
var ErrNoChoice error = &apperr.Friendly{
	Code:    "CONSOLE_AMBIGUOUS",
	Message: "more than one match and stdin is not a terminal; name it as registry/name",
}

// Prompter asks questions on a line-oriented input.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func NewPrompter(in io.Reader, out io.Writer, interactive bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// Stdio returns a prompter on the process stdin and stdout.
func Stdio() *Prompter {
	fd := os.Stdin.Fd()
	return NewPrompter(os.Stdin, os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", apperr.New("CONSOLE_EOF", "no answer given")
		}
		return "", fmt.Errorf("CONSOLE_READ: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// YesNo asks question until the answer is y/yes or n/no. An empty answer
// counts as no.
func (p *Prompter) YesNo(question string) (bool, error) {
	if !p.interactive {
		return false, ErrNotInteractive
	}
	for {
		fmt.Fprintf(p.out, "%s (y/N) ", question)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Choose lists options and returns the zero-based index picked.
func (p *Prompter) Choose(question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, apperr.New("CONSOLE_CHOICE", "nothing to choose from")
	}
	if !p.interactive {
		return 0, ErrNoChoice
	}
	fmt.Fprintln(p.out, question)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(p.out, "Choice [1-%d]: ", len(options))
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintln(p.out, "Invalid choice.")
	}
}
