package repositories

import "errors"

// ErrNotFound is wrapped by repository errors for missing rows so handlers
// can map them to 404 without matching message text.
var ErrNotFound = errors.New("not found")
