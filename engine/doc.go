// Package engine is the HTTP client for the automation engine API: node-type
// introspection, workflow create/delete, activation, and execute-and-fetch
// for simulation. Every call carries an explicit timeout; non-2xx responses
// are mapped onto the pipeline error taxonomy so validators can reason about
// rejections without parsing transport errors.
package engine
