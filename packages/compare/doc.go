// Package compare implements the structural comparison of decoded response bodies.
//
// Bodies are decoded into Value, a closed set of JSON types (Null, Bool,
// Number, String, Array and *Object) that keeps object keys in document
// order. Diff walks two values depth-first and returns path-addressed
// differences in a deterministic order:
//
//	data[2].status   changed  "active" -> "pending"
//	meta.region      added    "eu-west-1"
//	items[3]         removed  {"id":4}
//
// Arrays are compared by position unless Options select the LCS strategy.
// Bodies that are not JSON degrade to a raw text comparison.
package compare
