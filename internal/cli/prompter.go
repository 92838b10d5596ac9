package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/restpilot/restpilot/internal/render"
)

// terminalPrompter answers Prompt/Select chain sources by reading a line
// from stdin, writing its question to stderr so it never pollutes a
// command's rendered stdout output.
type terminalPrompter struct {
	in *bufio.Reader
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(os.Stdin)}
}

func (p *terminalPrompter) Prompt(req render.Prompt) {
	defer close(req.Reply)

	suffix := ""
	if req.HasDefault {
		suffix = fmt.Sprintf(" [%s]", req.Default)
	}
	fmt.Fprintf(os.Stderr, "%s%s: ", req.Message, suffix)

	line, err := p.readLine()
	if err != nil {
		return
	}
	line = strings.TrimSpace(line)
	if line == "" && req.HasDefault {
		line = req.Default
	}
	req.Reply <- line
}

func (p *terminalPrompter) Select(req render.Select) {
	defer close(req.Reply)

	fmt.Fprintln(os.Stderr, req.Message)
	for i, opt := range req.Options {
		fmt.Fprintf(os.Stderr, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(os.Stderr, "> ")

	line, err := p.readLine()
	if err != nil {
		return
	}
	line = strings.TrimSpace(line)

	if idx, err := strconv.Atoi(line); err == nil && idx >= 1 && idx <= len(req.Options) {
		req.Reply <- req.Options[idx-1]
		return
	}
	for _, opt := range req.Options {
		if opt == line {
			req.Reply <- line
			return
		}
	}
}

func (p *terminalPrompter) readLine() (string, error) {
	return p.in.ReadString('\n')
}
