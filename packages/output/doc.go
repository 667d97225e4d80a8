// Package output renders drift reports.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML, one test case per environment pair
//   - TAP: Test Anything Protocol, one test per environment pair
//
// Console writes each report as it arrives. The other formats accumulate
// reports and write them on Flush.
package output
