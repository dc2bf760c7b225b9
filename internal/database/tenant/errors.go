// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import "errors"

var (
	// ErrNotFound is returned by update and delete when the row does not exist
	// under the caller's business. Both cases are reported identically.
	ErrNotFound = errors.New("record not found or does not belong to this business")

	// ErrStoreUninitialized is returned by every operation of a store without a client
	ErrStoreUninitialized = errors.New("database client not initialized")

	ErrMissingBusiness   = errors.New("business id is required")
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrPageOutOfRange is returned when the page offset does not fit an int
	ErrPageOutOfRange = errors.New("page is out of range")

	// ErrEmptyFilter guards bulk deletes from matching a whole tenant
	ErrEmptyFilter = errors.New("bulk delete requires at least one filter condition")
)
