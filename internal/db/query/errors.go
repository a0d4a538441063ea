package query

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/assetq/internal/models"
)

// Scope identifies the request a store call serves
type Scope struct {
	OrganizationID string
	Filters        string
	Mode           models.Mode
}

// QueryError is returned for every failed store call. The driver error is
// available through errors.Unwrap.
type QueryError struct {
	Op             string
	OrganizationID string
	Filters        string
	Mode           models.Mode
	Err            error
}

func (e *QueryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed for organization %q", e.Op, e.OrganizationID)
	if e.Mode != "" {
		fmt.Fprintf(&b, " in %s mode", e.Mode)
	}
	if e.Filters != "" {
		fmt.Fprintf(&b, " with filters %q", e.Filters)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Wrap attaches the scope to err
func (s Scope) Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{
		Op:             op,
		OrganizationID: s.OrganizationID,
		Filters:        s.Filters,
		Mode:           s.Mode,
		Err:            err,
	}
}
