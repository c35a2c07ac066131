package util

type Envelope map[string]any

// ErrorWithCode is the error body returned by the API: a stable code, a human
// message and optional structured details.
func ErrorWithCode(code, message string, details map[string]any) Envelope {
	if details == nil {
		details = map[string]any{}
	}
	return Envelope{"error": code, "message": message, "details": details}
}
