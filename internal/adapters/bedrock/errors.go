package bedrock

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/corey/gourmand/internal/errors"
)

// classify maps an SDK failure to a structured error. Both the runtime and
// control-plane services report the same exception names, so the API error
// code is matched rather than each service's concrete types.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		return err
	}
	// the caller gave up; nothing went wrong on the service side
	if stderrors.Is(err, context.Canceled) {
		return fmt.Errorf("bedrock %s: %w", op, err)
	}

	code := errors.ErrCodeInternal
	var apiErr smithy.APIError
	switch {
	case stderrors.As(err, &apiErr):
		code = codeForAPIError(apiErr.ErrorCode())
	case stderrors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeTimeout
	}

	errorsTotal.WithLabelValues(op, string(code)).Inc()
	return errors.Wrap(code, fmt.Sprintf("bedrock %s failed", op), err)
}

func codeForAPIError(name string) errors.ErrorCode {
	switch name {
	case "ThrottlingException", "ServiceQuotaExceededException", "TooManyRequestsException":
		return errors.ErrCodeRateLimitExceeded
	case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException":
		return errors.ErrCodeUnauthorized
	case "ValidationException":
		return errors.ErrCodeInvalidRequest
	case "ResourceNotFoundException":
		return errors.ErrCodeNotFound
	case "ModelTimeoutException":
		return errors.ErrCodeTimeout
	case "ServiceUnavailableException", "ModelNotReadyException":
		return errors.ErrCodeUnavailable
	default:
		return errors.ErrCodeInternal
	}
}
