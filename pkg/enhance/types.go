package enhance

import (
	"fmt"
	"net/http"
)

// Kind names the item field a text belongs to.
type Kind string

const (
	KindTitle       Kind = "title"
	KindAction      Kind = "action"
	KindDescription Kind = "description"
)

// ParseKind accepts title, action or description.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTitle, KindAction, KindDescription:
		return k, nil
	default:
		return "", fmt.Errorf("unknown text type %q (expected title|action|description)", s)
	}
}

// Context carries the sibling fields of the item being edited.
type Context struct {
	Title       string `json:"title,omitempty"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
}

type Request struct {
	Text    string   `json:"text"`
	Type    Kind     `json:"type"`
	Context *Context `json:"context,omitempty"`
}

type Response struct {
	EnhancedText string `json:"enhancedText"`
	Error        string `json:"error,omitempty"`
}

// Error is a failed enhancement with the HTTP status to report it under.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("enhance: %d %s", e.Status, e.Message)
}

func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func internalError(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg}
}
