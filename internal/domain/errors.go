package domain

import "errors"

// Classifier and index failure modes. All of them surface to the transport
// as a failed Handle call; no partial Recommendation is produced on error.
var (
	// ErrUnclassified means the classifier returned text that does not map
	// onto any known Category.
	ErrUnclassified = errors.New("classifier response did not match any category")

	// ErrClassifierTimeout means polling exceeded the configured deadline.
	ErrClassifierTimeout = errors.New("classification timed out")

	// ErrClassifierFailure means the remote service reported a terminal
	// failure state.
	ErrClassifierFailure = errors.New("classifier service reported failure")

	// ErrIndexNotBuilt means Query was called before Build. Programmer
	// error; correct wiring never hits it.
	ErrIndexNotBuilt = errors.New("corpus index not built")
)
