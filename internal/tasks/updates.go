package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchCategories Phase = iota
	FetchChildren
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchCategories:
		return "fetch_categories"
	case FetchChildren:
		return "fetch_children"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func startPhaseUpdate(phase Phase, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Total:   total,
		Message: fmt.Sprintf("Exporting %d %s...", total, noun(phase, total)),
	}
}

func exportCompletedUpdate(phase Phase, step, total int, name string, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d items)", step, total, name, items),
	}
}

func exportFailedUpdate(phase Phase, step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: fmt.Sprintf("Manifest written to %s", path)}
}

func noun(phase Phase, n int) string {
	switch {
	case phase == FetchCategories && n == 1:
		return "category"
	case phase == FetchCategories:
		return "categories"
	case n == 1:
		return "collection"
	default:
		return "collections"
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
