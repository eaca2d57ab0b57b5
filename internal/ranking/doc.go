// Package ranking implements the hot-rank score used to order the trending feed.
//
// The score blends vote magnitude (logarithmic) and recency (linear) into a
// single comparable float. Pure functions only - no I/O, no clock reads.
package ranking
