package shared

import (
	"fmt"

	"github.com/sa-stockmaster/sa-stockmaster/internal/platform/httpx"
)

// Sentinels alias the transport-level errors so repositories and services can
// return values that map straight to HTTP status codes.
var (
	ErrNotFound      = httpx.ErrNotFound
	ErrDuplicate     = httpx.ErrDuplicate
	ErrValidation    = httpx.ErrValidation
	ErrInvalidID     = fmt.Errorf("%w: invalid ID", httpx.ErrValidation)
	ErrRequiredField = fmt.Errorf("%w: field is required", httpx.ErrValidation)
)
