// Package smoothing removes fast oscillations from sampled signals while
// keeping their secular trend.
//
// Fixed-window filters:
//
//   - [MovingAverage]: centered mean, shrinking at the boundaries
//   - [SavitzkyGolay]: centered least-squares polynomial, boundary samples
//     taken from a polynomial fitted to the first or last full window
//
// Phase-adaptive filters size the window per sample from a reference phase:
// W(i) = round(factor/|Δphase(i)|), see [AdaptiveWindows]. A window that
// spans one local oscillation period removes that oscillation even when the
// period drifts along the signal.
//
//   - [AdaptiveMovingAverage]
//   - [AdaptiveSavitzkyGolay], per sample or in [ModeLegacyLastWindow]
//
// All filters return a new [signal.Signal] of the input's length and run in
// O(window) per sample. The [Filter] implementations [Fixed] and [Adaptive]
// let pipeline stages be chosen by configuration.
package smoothing
