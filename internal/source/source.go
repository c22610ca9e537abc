// Package source provides tracking.SampleSource implementations: a
// synthetic signal generator for tests and demos, a raw interleaved
// int16 IQ file reader, and a serial-attached front-end reader.
package source

import "github.com/bramburn/gnss-tracking/pkg/tracking"

// Source is the contract every implementation in this package
// satisfies; it is exactly tracking.SampleSource, restated here so
// callers of this package don't need to import pkg/tracking just to
// name the interface.
type Source = tracking.SampleSource
