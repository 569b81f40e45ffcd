// Package dictionary holds the static EMS terminology tables used during
// query normalization: abbreviation and phrase expansions, and weighted
// keyword lists for intent classification. It is pure data with lookup
// helpers and carries no state.
package dictionary
