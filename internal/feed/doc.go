// Package feed assembles the ranked public clip feed and applies vote toggles.
//
// Assemble is a pure function over clips-with-votes: it derives tallies from
// raw vote rows, ranks, window-filters, sorts, and caps the result. Service
// orchestrates the repositories, the popular-list cache, and the vote
// tri-state transition. Tallies are never read from stored counters.
package feed
