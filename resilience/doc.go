// Package resilience retries operations with exponential backoff.
//
// The flow uses it at exactly one boundary: launching the power tool, which
// can fail transiently while no license seat is free. Once a tool session has
// run commands its failures are final and must not be retried, so the default
// RetryIf only accepts errors marked Retryable.
//
//	out, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Outcome, error) {
//	    return launch(ctx)
//	})
package resilience
