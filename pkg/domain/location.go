package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// LocationPrefix is the first path segment of every funnel address.
const LocationPrefix = "/review/"

// Location encodes the canonical address for a campaign at a given step:
// /review/{campaignId}/step/{n}.
func Location(campaignID string, step Step) string {
	return LocationPrefix + url.PathEscape(campaignID) + "/step/" + strconv.Itoa(int(step.Clamp()))
}

// ParseLocation decodes an address into its campaign id and step.
// The step is canonicalized (see ParseStep); ok is false only when the
// address does not name a campaign at all.
//
// Accepted shapes:
//
//	/review/{id}
//	/review/{id}/
//	/review/{id}/step
//	/review/{id}/step/{n}
func ParseLocation(raw string) (campaignID string, step Step, ok bool) {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.EscapedPath()
	}
	if !strings.HasPrefix(path, LocationPrefix) {
		return "", FirstStep, false
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, LocationPrefix), "/"), "/")
	id, err := url.PathUnescape(parts[0])
	if err != nil || id == "" {
		return "", FirstStep, false
	}

	step = FirstStep
	if len(parts) >= 3 && parts[1] == "step" {
		step = ParseStep(parts[2])
	}
	return id, step, true
}

// IsCanonical reports whether raw is byte-identical to the canonical
// address it decodes to.
func IsCanonical(raw string) bool {
	id, step, ok := ParseLocation(raw)
	return ok && raw == Location(id, step)
}
