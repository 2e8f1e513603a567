package types

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery = errors.New("empty search query")
)

// Result is one merged search hit. The provider's raw title is split on
// the first " - ": the left side becomes Name, the remainder Title. All
// fields are nullable on the wire.
type Result struct {
	Name    *string `json:"name"`
	Title   *string `json:"title"`
	Link    *string `json:"link"`
	Snippet *string `json:"snippet"`
	Image   *string `json:"image"`
}

// Page is one provider call's worth of results.
type Page struct {
	Items []*Result

	// NextStart is the 1-based offset of the following page, 0 when the
	// provider returned no pagination cursor.
	NextStart int

	// HasMore is false once the provider's 100-result window is
	// exhausted or the page came back empty.
	HasMore bool
}

// ProviderError wraps a failed upstream search call.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search provider error: %s (%v)", e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("search provider error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("search provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
