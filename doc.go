/*
Package funnel orchestrates a four-step review collection funnel: a customer
picks what they are reviewing, leaves contact details, writes feedback, and
lands on a reward disclosure that may invite them to share the review on the
marketplace.

# Concept

The Engine owns every live session. Hosts (the HTTP server, the terminal
runner, the MCP server) never mutate a session directly; they send patches
and navigation requests and render whatever View the engine returns. Each
session moves through three phases:

  - loading: campaign data is being resolved. Input is rejected.
  - active: the customer is on one of the four steps.
  - error: resolution failed. Terminal.

Campaign, product and review operations go through two backend surfaces. The
privileged surface is tried first with the viewer's credentials; on any
failure the public surface is tried with the same inputs. The demo campaign
never touches either.

Leaving the feedback step submits the review. The session lock is released
while the call is out, and input is rejected until the outcome is applied.
A failed submission leaves the customer on the feedback step with a
retryable error.

# Usage

	backend := ports.Backend{Privileged: priv, Public: pub}
	eng, err := funnel.New(backend, funnel.WithTracker(tracker))
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.Mount(ctx, viewer, "camp-42")
	if err != nil {
		log.Fatal(err)
	}

	s, err = eng.Update(ctx, s.ID, domain.FormPatch{Rating: &five})
	s, err = eng.Advance(ctx, viewer, s.ID)

	view, _ := eng.View(ctx, s.ID)
	fmt.Println(view.Kind, view.Location)
*/
package funnel
