// Package analysis provides level meters for the master output.
//
// Meters are written by the audio callback and read by diagnostics from
// any goroutine. Published values are stored in atomics, so Process never
// locks and readers never observe a torn value.
//
// Example usage:
//
//	m := analysis.NewMasterMeter(48000)
//	m.Process(left, right)  // audio context
//	peak := m.PeakDB()      // any goroutine
package analysis
