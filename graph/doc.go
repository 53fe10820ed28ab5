// Package graph defines the workflow graph model: nodes, the connections map
// between node ports, deep cloning for repair transformations, cycle
// detection, and the JSON-schema gate applied to raw generation-provider
// output before decoding.
//
// A Graph is owned by exactly one pipeline run. Validators never mutate it;
// the auto-fixer mutates clones only.
package graph
