package common

import (
	"context"
	"time"

	"github.com/teemow/gsuiteadmin/internal/instrumentation"
)

// TrackAPICall starts a span for one Admin SDK call and returns the
// function that records its outcome. metrics may be nil.
//
// Usage:
//
//	ctx, done := common.TrackAPICall(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet)
//	user, err := client.GetUser(ctx, key)
//	done(err)
func TrackAPICall(ctx context.Context, metrics *instrumentation.Metrics, service, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, service, operation)

	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		metrics.RecordGoogleAPIOperation(ctx, service, operation, status, time.Since(start))
		span.End()
	}
}

// Call runs fn as one tracked Admin SDK call.
func Call[T any](ctx context.Context, metrics *instrumentation.Metrics, service, operation string, fn func(context.Context) (T, error)) (T, error) {
	ctx, done := TrackAPICall(ctx, metrics, service, operation)
	v, err := fn(ctx)
	done(err)
	return v, err
}

// Exec is Call for operations without a result.
func Exec(ctx context.Context, metrics *instrumentation.Metrics, service, operation string, fn func(context.Context) error) error {
	ctx, done := TrackAPICall(ctx, metrics, service, operation)
	err := fn(ctx)
	done(err)
	return err
}
