// Package report compares the envelopes of one dispatch against a baseline
// environment.
//
// Every other environment is paired with the baseline, in environment order.
// A pair drifts when one side failed, the status codes differ or the bodies
// are not equivalent under the comparison options.
package report
