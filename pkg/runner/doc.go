/*
Package runner drives the review funnel from a terminal or any line-based
stream.

It is the bridge between the Engine and a person (or a script) typing
answers. The runner mounts a session, renders the active view, prompts for
the fields of the current step, and continues or goes back as instructed.
How views are shown and answers read is delegated to an IOHandler.

# Key Components

  - Runner: the prompt loop.
  - TextHandler: interactive terminal I/O with an optional markdown renderer.
  - JSONHandler: JSON-Lines I/O for scripted hosts.

# Usage

	r := runner.New(eng,
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, domain.DemoCampaignID); err != nil {
		log.Fatal(err)
	}

Typing ":back" at any prompt goes one step back; ":quit" ends the session.
*/
package runner
