package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	primaryPrompt      = ">>> "
	continuationPrompt = "... "
)

// Exec runs one cell against the persistent cell namespace. A cell made of
// a single expression prints its value unless it is None.
func (s *Shell) Exec(ctx context.Context, src string) error {
	s.applyAutoreload(ctx)

	s.cells++
	name := fmt.Sprintf("<cell %d>", s.cells)
	thread, stop := s.newThread(ctx, name)
	defer stop()

	f, err := fileOptions.Parse(name, src, 0)
	if err != nil {
		return err
	}

	if expr := soleExpr(f); expr != nil {
		v, err := starlark.EvalExprOptions(fileOptions, thread, expr, s.cell)
		if err != nil {
			return err
		}
		if v != starlark.None {
			fmt.Fprintln(s.out, v.String())
		}
		return nil
	}

	// Names bound before a failure stay bound, as in any interactive session.
	return starlark.ExecREPLChunk(f, thread, s.cell)
}

// Run reads cells from in until EOF or cancellation. Lines starting with
// "%" are magics. A line ending in ":" opens a block that a blank line
// closes. Errors are printed and the loop continues.
func (s *Shell) Run(ctx context.Context, in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	var block []string

	prompt := func() {
		if !interactive {
			return
		}
		if len(block) > 0 {
			fmt.Fprint(s.out, continuationPrompt)
			return
		}
		fmt.Fprint(s.out, primaryPrompt)
	}

	flush := func() error {
		src := strings.Join(block, "\n") + "\n"
		block = block[:0]
		return s.report(s.Exec(ctx, src))
	}

	prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case len(block) > 0 && trimmed == "":
			if err := flush(); err != nil {
				return err
			}
		case len(block) > 0:
			block = append(block, line)
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(trimmed, "%"):
			if err := s.report(s.RunMagic(ctx, trimmed)); err != nil {
				return err
			}
		case strings.HasSuffix(trimmed, ":"):
			block = append(block, line)
		default:
			block = append(block, line)
			if err := flush(); err != nil {
				return err
			}
		}
		prompt()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if len(block) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}
	if interactive {
		fmt.Fprintln(s.out)
	}

	return nil
}

// report prints a cell failure and swallows it. Cancellation is returned so
// the loop stops.
func (s *Shell) report(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		fmt.Fprintln(s.out, evalErr.Backtrace())
		return nil
	}

	fmt.Fprintf(s.out, "error: %v\n", err)
	return nil
}

func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) != 1 {
		return nil
	}
	if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
		return stmt.X
	}

	return nil
}
