// Package astar provides a generic, deterministic A* search.
//
// It exposes two entry points:
//
//   - Search: run the algorithm to completion and get a Result.
//   - Stepper: advance the search one expansion at a time to drive visualizers or debugging tools.
//
// The engine is single-threaded and keeps no state between searches. Frontier ordering is
// fully deterministic: lower estimated total cost first, then lower cost-so-far, then
// earlier discovery, so identical inputs always produce identical paths.
package astar
