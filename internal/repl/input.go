package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/session"
)

// ContentTerminator ends a multi-line /write body.
const ContentTerminator = "."

var ErrNoContent = errors.New("input closed before any content")

// Input is the single reader behind both the prompt and /write bodies.
type Input struct {
	r      *bufio.Reader
	notice io.Writer
}

// NewInput reads lines from r. When notice is set, it receives the hint
// printed before a /write body is read.
func NewInput(r io.Reader, notice io.Writer) *Input {
	return &Input{r: bufio.NewReader(r), notice: notice}
}

// ReadLine returns the next line without its terminator. A final line with
// no newline is returned before io.EOF.
func (in *Input) ReadLine() (string, error) {
	line, err := in.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Content reads a file body typed at the keyboard, up to a line holding only
// "." or the end of input.
func (in *Input) Content(ctx context.Context, _ *session.State, path string) (string, error) {
	if in.notice != nil {
		fmt.Fprintf(in.notice, "Enter content for %s, finish with a line containing only %q:\n", path, ContentTerminator)
	}
	var lines []string
	sawInput := false
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		sawInput = true
		if strings.TrimSpace(line) == ContentTerminator {
			break
		}
		lines = append(lines, line)
	}
	if !sawInput {
		return "", ErrNoContent
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}
