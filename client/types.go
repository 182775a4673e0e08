package client

import "fmt"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CLIENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// User is the denormalized snapshot of the authenticated principal cached
// next to the token so pages don't refetch the profile on every load.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	IsActive  bool   `json:"is_active,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Credential pairs the bearer token with its user snapshot. The two travel
// as one value: there is no way to persist or observe one without the other.
type Credential struct {
	Token string
	User  User
}
