package documents

import "errors"

// ErrDocumentExists is returned when an insert collides with an existing
// (collection, id) pair.
var ErrDocumentExists = errors.New("document already exists")
