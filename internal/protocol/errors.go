package protocol

// Error codes carried in Error replies. Connection-admission failures
// are rejected at the HTTP layer before the upgrade, so they never
// appear here.
const (
	// Transport/decoding.
	ErrBadMessage = "E_BAD_MESSAGE"

	// Intent validation.
	ErrBadColor = "E_BAD_COLOR"
)

var knownCodes = map[string]struct{}{
	ErrBadMessage: {},
	ErrBadColor:   {},
}

// IsKnownCode reports whether a code belongs to the published taxonomy.
// The empty code is allowed; it means an unclassified error.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
