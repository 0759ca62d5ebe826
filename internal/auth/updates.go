package auth

import (
	"fmt"

	"github.com/desertthunder/tidalx/internal/models"
)

// ProgressUpdate is a progress event emitted while a flow polls.
//
// Used to drive CLI spinners and the terminal browser's status line.
type ProgressUpdate struct {
	State   State  // Flow state when the update was sent
	Attempt int    // Poll attempt number, zero before the first attempt
	Total   int    // Attempt budget
	Message string // Human-readable message for display
}

func awaitingUpdate(total int, grant models.DeviceGrant) ProgressUpdate {
	return ProgressUpdate{
		State:   AwaitingUser,
		Total:   total,
		Message: fmt.Sprintf("Visit %s and enter code %s", grant.VerificationURI, grant.UserCode),
	}
}

func pendingUpdate(attempt, total int) ProgressUpdate {
	return ProgressUpdate{
		State:   Polling,
		Attempt: attempt,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Waiting for authorization...", attempt, total),
	}
}

func retryUpdate(attempt, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		State:   Polling,
		Attempt: attempt,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Retrying after error: %v", attempt, total, err),
	}
}

func grantedUpdate(attempt, total int) ProgressUpdate {
	return ProgressUpdate{
		State:   Granted,
		Attempt: attempt,
		Total:   total,
		Message: "✓ Authorized",
	}
}

func expiredUpdate(attempt, total int) ProgressUpdate {
	return ProgressUpdate{
		State:   Expired,
		Attempt: attempt,
		Total:   total,
		Message: "✗ Device code expired",
	}
}

func cancelledUpdate(attempt, total int) ProgressUpdate {
	return ProgressUpdate{
		State:   Cancelled,
		Attempt: attempt,
		Total:   total,
		Message: "✗ Authorization cancelled",
	}
}

// sendProgress sends update without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
