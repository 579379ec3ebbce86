/*
Package domain contains the core domain models of the review funnel.

It defines the session aggregate, the four funnel steps and their canonical
addresses, the campaign data a session is hydrated with, the review payload,
and the view contracts handed to step renderers. This package is kept pure
and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Session: the live aggregate for one pass (phase, current step, location, form).
  - Step / Location: the step enum and its /review/{campaignId}/step/{n} encoding.
  - FormData / FormPatch: accumulated input and partial updates from step views.
  - CampaignView: read-only campaign, promotion and product data.
  - ReviewPayload: the submission sent to the review surfaces.
  - View: the data contract for the single active screen.
*/
package domain
