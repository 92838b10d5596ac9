package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/restpilot/restpilot/internal/collection"
)

// resolveCommandSource renders every argv element and the optional stdin
// template, then spawns the command, piping stdin/stdout/stderr. A
// non-zero exit is not itself an error; only I/O/spawn failures are
// (spec.md §4.3).
func resolveCommandSource(ctx context.Context, source collection.ChainSource, rc *Context, stack keyStack) (sourceResult, error) {
	if len(source.Argv) == 0 {
		return sourceResult{}, &ChainError{Kind: ErrCommandMissing}
	}

	argv := make([]string, len(source.Argv))
	g, gctx := errgroup.WithContext(ctx)
	for i, tpl := range source.Argv {
		i, tpl := i, tpl
		g.Go(func() error {
			rendered, err := renderChainConfig(gctx, argvField(i), tpl, rc, stack.clone())
			if err != nil {
				return err
			}
			argv[i] = rendered
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sourceResult{}, err
	}

	var stdin []byte
	if source.Stdin != nil {
		rendered, err := renderChainConfig(ctx, "stdin", source.Stdin, rc, stack)
		if err != nil {
			return sourceResult{}, err
		}
		stdin = []byte(rendered)
	}

	slog.Debug(fmt.Sprintf("Executing command %v", argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return sourceResult{}, &ChainError{Kind: ErrCommand, Argv: argv, Inner: err}
		}
	}

	slog.Debug(fmt.Sprintf("Command output: stdout=%q stderr=%q", stdout.String(), stderr.String()))

	return sourceResult{value: stdout.Bytes()}, nil
}

func argvField(i int) string {
	return "command[" + strconv.Itoa(i) + "]"
}
