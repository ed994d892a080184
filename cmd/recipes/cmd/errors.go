package cmd

import (
	"fmt"

	"github.com/corey/gourmand/internal/errors"
)

// formatError renders err for stderr with actionable guidance for the
// failures users can fix themselves.
func formatError(err error) string {
	msg := fmt.Sprintf("error: %v", err)
	switch errors.CodeOf(err) {
	case errors.ErrCodeLocked:
		return msg + "\n" +
			"  → another recipes session is running against the same data dir\n" +
			"  → find the process:  ps aux | grep recipes\n" +
			"  → or use a separate --data-dir"
	case errors.ErrCodeUnauthorized:
		return msg + "\n" +
			"  → check your AWS credentials (aws sso login, --aws-profile)\n" +
			"  → make sure model access is granted in the Bedrock console"
	case errors.ErrCodeRateLimitExceeded:
		return msg + "\n" +
			"  → the service is throttling requests; wait a moment\n" +
			"  → or lower --requests-per-minute"
	case errors.ErrCodeInvalidRequest:
		return msg + "\n" +
			"  → run 'recipes models' to see the model ids available to you"
	default:
		return msg
	}
}
