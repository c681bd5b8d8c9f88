package record

import (
	"fmt"
	"strings"
)

// AnomalousToken describes data tokens beyond the expected slot count, they are dropped and
// processing continues.
type AnomalousToken struct {
	Line  string
	Extra []string
}

func (e *AnomalousToken) Error() string {
	return fmt.Sprintf("anomalous tokens [%s] in line %q", strings.Join(e.Extra, " "), e.Line)
}

// NormalizationError describes a raw value that could not be coerced to its declared type,
// the field is marked absent and the record is kept.
type NormalizationError struct {
	Field string
	Raw   string
	Type  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: cannot coerce %q to %s", e.Field, e.Raw, e.Type)
}

// InputContractError is returned when the content source hands over malformed content. It is
// the only condition that stops an extraction run.
type InputContractError struct {
	Location string
	Reason   string
}

func (e *InputContractError) Error() string {
	return fmt.Sprintf("input contract violated at %s: %s", e.Location, e.Reason)
}
