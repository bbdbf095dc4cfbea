// Package inventory classifies virtual machines into patch-lifecycle states
// by querying Azure Resource Graph.
//
// Each classification is a structured Query rendered to KQL and executed
// through an Executor. The Adapter turns rows into Sets of resource IDs and
// records; a failing query produces an empty Set with Err populated so one
// broken classification never takes down the whole refresh cycle.
//
// Gather runs all classifications plus the installation-history query
// concurrently and returns once every unit has finished or timed out.
package inventory
