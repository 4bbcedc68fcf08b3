// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. The
// distinction between ErrPrincipalNotFound and ErrStoreUnavailable is
// load-bearing: "no such user" routes a federated login to the
// registration flow, while "store failed" must surface as a server
// error and never be mistaken for an unknown identity.
package repository

import "errors"

// ErrPrincipalNotFound is returned when a lookup by id or email matches no
// row. Handlers translate this into a 404-class or "not registered"
// response depending on the flow.
var ErrPrincipalNotFound = errors.New("principal not found")

// ErrStoreUnavailable wraps any database failure that is not a missing
// row: connection loss, timeout, malformed scan. Callers check it with
// errors.Is and report a server-side failure.
var ErrStoreUnavailable = errors.New("principal store unavailable")

// ErrResetNotFound is returned when a password reset token hash matches no
// usable row (missing, expired or already consumed).
var ErrResetNotFound = errors.New("password reset token not found")
