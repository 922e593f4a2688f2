package theory

import "fmt"

// InvalidChordSymbolError is returned when a chord symbol cannot be parsed.
type InvalidChordSymbolError struct {
	Symbol string
	Reason string
}

func (e *InvalidChordSymbolError) Error() string {
	return fmt.Sprintf("invalid chord symbol %q: %s", e.Symbol, e.Reason)
}
