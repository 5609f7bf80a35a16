package cms

import (
	"fmt"
	"net/http"
)

// QueryError reports a failed read: the store was unreachable, rejected the
// query, or returned a payload that could not be decoded.
type QueryError struct {
	Query       string
	Status      int
	Type        string
	Description string
	Err         error
}

func (e *QueryError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("cms: query failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("cms: query failed (%d): %v", e.Status, e.Err)
	case e.Description != "":
		return fmt.Sprintf("cms: query failed (%d %s): %s", e.Status, e.Type, e.Description)
	default:
		return fmt.Sprintf("cms: query failed: %s", http.StatusText(e.Status))
	}
}

func (e *QueryError) Unwrap() error { return e.Err }

// WriteError reports a rejected or failed create operation.
type WriteError struct {
	Status      int
	Type        string
	Description string
	Err         error
}

func (e *WriteError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("cms: write failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("cms: write failed (%d): %v", e.Status, e.Err)
	case e.Description != "":
		return fmt.Sprintf("cms: write failed (%d %s): %s", e.Status, e.Type, e.Description)
	default:
		return fmt.Sprintf("cms: write failed: %s", http.StatusText(e.Status))
	}
}

func (e *WriteError) Unwrap() error { return e.Err }

// apiError is the error envelope returned by the content API.
type apiError struct {
	Error struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"error"`
	Message string `json:"message"`
}
