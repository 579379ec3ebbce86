package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"golang.org/x/term"
)

// RunOptions configures the terminal funnel.
type RunOptions struct {
	CampaignID string
	Token      string
	JSON       bool
	Plain      bool

	// In and Out default to the process stdio.
	In  io.Reader
	Out io.Writer
}

// RunSession walks one review in the terminal.
func RunSession(ctx context.Context, app *App, opts RunOptions) error {
	if opts.CampaignID == "" {
		opts.CampaignID = domain.DemoCampaignID
	}
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	handler, interactive, err := newHandler(in, out, opts)
	if err != nil {
		return err
	}
	if interactive {
		tui.PrintBanner(out)
	}

	r := runner.New(app.Engine,
		runner.WithHandler(handler),
		runner.WithViewer(viewer(opts.Token)),
		runner.WithLogger(app.Logger),
	)
	runErr := r.Run(ctx, opts.CampaignID)

	if interactive {
		switch {
		case ctx.Err() != nil:
			printSystemMessage(out, "Interrupted.")
		case runErr == nil:
			printSystemMessage(out, "Thanks for your review.")
		}
	}
	return handleExecutionError(runErr)
}

func newHandler(in io.Reader, out io.Writer, opts RunOptions) (runner.IOHandler, bool, error) {
	if opts.JSON {
		return runner.NewJSONHandler(in, out), false, nil
	}

	f, isFile := out.(*os.File)
	if opts.Plain || !isFile || !term.IsTerminal(int(f.Fd())) {
		return runner.NewTextHandler(in, out), false, nil
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = tui.DefaultWidth
	}
	render, err := tui.NewRenderer(width)
	if err != nil {
		return nil, false, err
	}
	return runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(render)), true, nil
}
