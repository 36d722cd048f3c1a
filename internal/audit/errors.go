package audit

import "errors"

// ErrNotFound is returned by Retrieve/RetrieveByToken when no trace matches.
var ErrNotFound = errors.New("audit: trace not found")

// ErrAlreadyStored is returned by Store when decision_id already has a
// trace — the write-once invariant (§4.5 S1, §8 property 4).
var ErrAlreadyStored = errors.New("audit: trace already stored for decision")
