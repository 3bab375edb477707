// Package jsonutil provides small JSON stringification helpers used by the
// wire types' String() methods for logging.
package jsonutil

import "encoding/json"

// Stringify marshals v to compact JSON for use in a String() method. It never
// returns an error string containing the marshal error verbatim, since
// String() implementations must not panic or fail.
func Stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "<unmarshalable>"
	}
	return string(b)
}

// StringifyPretty marshals v to indented JSON for use in a String() method.
func StringifyPretty(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "<unmarshalable>"
	}
	return string(b)
}
