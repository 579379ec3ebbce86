/*
Package ports defines the driven ports (interfaces) of the review funnel.

These interfaces decouple the orchestration logic from external
implementations, allowing the funnel to work against HTTP backends, in-memory
fixtures, and various session stores.

# Key Interfaces

  - Surface / Backend: campaign, product and review operations, in a privileged and a public variant.
  - Tracker: best-effort analytics side channel.
  - StateStore: ephemeral storage of live sessions.
  - DistributedLocker: distributed locking for handling concurrent session access.
*/
package ports
