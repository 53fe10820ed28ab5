// Package saga deploys validated workflows as an ordered sequence of
// compensable steps: persist a draft record, create the workflow in the
// engine, activate it, and mark the record active. Each step retries
// transient failures; when a step exhausts its retries, the completed
// steps are compensated in strict reverse order so no half-deployed
// workflow survives. An idempotency key short-circuits repeat deploys.
package saga
