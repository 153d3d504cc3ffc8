// Package repository contains the data access layer, separated from HTTP
// handlers.  This file defines the sentinel errors shared across
// repositories so handlers can translate failures into status codes with
// errors.Is instead of inspecting driver errors.
package repository

import "errors"

// ErrItemNotFound is returned when an item id does not resolve to a row.
// Handlers translate it into HTTP 404.
var ErrItemNotFound = errors.New("item not found")

// ErrSubtaskNotFound is returned when a subtask id does not exist under the
// given item.  Handlers translate it into HTTP 404.
var ErrSubtaskNotFound = errors.New("subtask not found")

// ErrUserNotFound is returned when a user lookup by id or email matches no
// row.  Login maps it to the same 401 as a wrong password so the response
// never reveals which of email/password was wrong.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidRefresh is returned when a refresh token hash is unknown,
// expired or revoked.  The three cases are deliberately indistinguishable.
var ErrInvalidRefresh = errors.New("invalid refresh token")
