package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a value
// that is about to be embedded into a generation prompt.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Value       string // The value that was checked
}

// CheckValueForInjection uses libinjection to detect SQL injection patterns
// in a stored value before it is quoted into a prompt as an exact-value hint.
// Stored data is normally trusted, but value hints flow straight into
// generated SQL, so hostile rows must not ride along.
//
// Returns nil if no injection is detected.
func CheckValueForInjection(value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Value:       value,
		}
	}

	return nil
}
