// Package analysis detects nanopatterns in the instruction stream of a
// single method. Each scanner folds over the stream once and the Analyzer
// merges their flags into a Result.
package analysis

import "math"

const (
	// farDistance is the initial distance since the last receiver load.
	// Increments saturate here so it never wraps into a near value.
	farDistance = math.MaxInt

	// receiverSlot is the local slot holding the receiver of instance methods.
	receiverSlot = 0

	// ownFieldReadDistance is the distance at which getfield reads through
	// the receiver loaded just before it.
	ownFieldReadDistance = 1

	// ownFieldWriteDistance is the distance at which putfield writes through
	// the receiver: receiver, value, store.
	ownFieldWriteDistance = 2
)

// DefaultStdlibPrefixes are the owner-class prefixes treated as the
// platform standard library.
var DefaultStdlibPrefixes = []string{"java/", "javax/"}
