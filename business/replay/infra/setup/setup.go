// Package setup prepares the replay node and waits for the operator to start the replay.
package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fd1az/sothis/internal/apperror"
)

// ModeSetter performs MODE_SETUP on the replay node. *app.Engine satisfies it.
type ModeSetter interface {
	Setup(ctx context.Context) error
}

// Prompter runs the interactive setup step.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// NewPrompter reads from stdin and writes to stdout.
func NewPrompter() *Prompter {
	return &Prompter{in: os.Stdin, out: os.Stdout}
}

// NewPrompterWith uses the given streams.
func NewPrompterWith(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Run disables block production on the replay node, then blocks until the
// operator presses return or ctx ends. A closed input stream counts as confirmation.
func (p *Prompter) Run(ctx context.Context, node ModeSetter) error {
	if err := node.Setup(ctx); err != nil {
		return err
	}

	fmt.Fprintln(p.out, "Please deploy your contracts, and prepare to start replaying.")
	fmt.Fprintln(p.out, "Use the --no-setup flag to skip this step.")
	fmt.Fprintln(p.out, "Press the return(enter) key to start replaying transactions...")

	read := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(p.in).ReadString('\n')
		read <- err
	}()

	select {
	case err := <-read:
		if err != nil && !errors.Is(err, io.EOF) {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithMessage("failed to read operator confirmation"), apperror.WithCause(err))
		}
	case <-ctx.Done():
		return apperror.New(apperror.CodeInterrupted, apperror.WithCause(ctx.Err()))
	}

	fmt.Fprintln(p.out, "Starting replay...")
	return nil
}
