package log

const (
	FieldKeyRule   = "rule"
	FieldKeyModule = "module"
	FieldKeyMember = "member"
)

// Fields type, used to pass to `WithFields`.
type Fields map[string]any
