// Package prompter reads interactive answers from the terminal.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter shares one buffered reader across prompts so type-ahead is not lost
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// New reads from r and writes prompts to w. Password prompts hide input only
// when r is a terminal.
func New(r io.Reader, w io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(r), out: w, fd: -1}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Stdio prompts on the process's terminal
func Stdio() *Prompter {
	return New(os.Stdin, os.Stderr)
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) String(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.readLine()
	return strings.TrimSpace(line), err
}

// Password reads without echo on a terminal
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if p.fd < 0 {
		return p.readLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *Prompter) Confirm(label string) (bool, error) {
	answer, err := p.String(label + " (y/n) ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Select returns the zero-based index of the chosen option
func (p *Prompter) Select(label string, options []string) (int, error) {
	fmt.Fprintln(p.out, label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "%d) %s\n", i+1, opt)
	}
	answer, err := p.String("Select option: ")
	if err != nil {
		return -1, err
	}
	var n int
	if _, err := fmt.Sscanf(answer, "%d", &n); err != nil {
		return -1, fmt.Errorf("invalid selection %q", answer)
	}
	if n < 1 || n > len(options) {
		return -1, fmt.Errorf("invalid selection %d", n)
	}
	return n - 1, nil
}

// Multiline reads until an empty line or maxLines lines
func (p *Prompter) Multiline(label string, maxLines int) (string, error) {
	fmt.Fprintf(p.out, "%s (empty line to finish):\n", label)
	var lines []string
	for len(lines) < maxLines {
		line, err := p.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
