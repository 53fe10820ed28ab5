// Package resilience provides the fault-tolerance primitives the pipeline
// builds on: a circuit breaker used per generation provider and a generic
// retry helper with exponential backoff used by the deployment saga and
// external clients.
//
//	br := resilience.NewBreaker(resilience.BreakerConfig{Name: "openai"})
//	err := br.Execute(func() error { return callProvider() })
package resilience
