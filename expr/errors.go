package expr

import "fmt"

// ParseError reports a lexing or parsing failure at a source position.
type ParseError struct {
	Position Pos
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Position.Offset, e.Message)
}

func parseErr(pos Pos, format string, args ...interface{}) *ParseError {
	return &ParseError{Position: pos, Message: fmt.Sprintf(format, args...)}
}
