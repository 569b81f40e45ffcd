// Package normalize turns raw query text into a canonical token sequence
// with an inferred intent category, using the static terminology tables in
// package dictionary.
//
// Normalization is a deterministic, pure function: no I/O, no randomness,
// no wall-clock dependence. Re-normalizing already-canonical text is a
// no-op, which makes the canonical text safe to use as a cache key.
package normalize
