package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads secrets without echoing them when attached to a terminal.
type prompter interface {
	Secret(label string) (string, error)
}

type termPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

func newTermPrompter(in *os.File, out io.Writer) *termPrompter {
	return &termPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

func (p *termPrompter) Secret(label string) (string, error) {
	fmt.Fprint(p.out, label)

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		defer fmt.Fprintln(p.out)
		raw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		defer clear(raw)
		return string(raw), nil
	}

	// piped input, one value per line
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newPassword asks for a password twice and rejects empty or mismatched input.
func newPassword(p prompter) (string, error) {
	first, err := p.Secret("New backup password: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("password cannot be empty")
	}
	second, err := p.Secret("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}
