package runner

import "context"

// FailureLogger logs failed outcomes.
type FailureLogger interface {
	LogFailure(outcome Outcome)
}

// loggingDispatcher wraps a Dispatcher with failure logging.
type loggingDispatcher struct {
	inner  Dispatcher
	logger FailureLogger
}

// WithLogging wraps a Dispatcher to log failures.
func WithLogging(d Dispatcher, logger FailureLogger) Dispatcher {
	if logger == nil {
		return d
	}
	return &loggingDispatcher{
		inner:  d,
		logger: logger,
	}
}

func (l *loggingDispatcher) Dispatch(ctx context.Context, requestID int) Outcome {
	outcome := l.inner.Dispatch(ctx, requestID)
	if !outcome.Success() {
		l.logger.LogFailure(outcome)
	}
	return outcome
}
