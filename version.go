package funnel

// Version is the release of the funnel module. Overridden at build time with
// -ldflags "-X github.com/aretw0/funnel.Version=...".
var Version = "0.4.0"
