// Package util provides the pure, stateless helpers the table engine is built
// on: Thomas Wang's integer avalanche hashes, the djb2 string hash,
// power-of-two rounding and checking, string key validation, and distribution
// statistics used for table diagnostics.
//
// All functions in this package are free of shared state and safe for
// concurrent use.
package util
