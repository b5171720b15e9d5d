package model

// Command is a parsed editor command addressed to a session.
type Command struct {
	Scope     string
	Operation string
	Args      []string
}
