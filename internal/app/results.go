package app

import "github.com/kanzure/webcasa/internal/progress"

// ReceiveResult is the outcome of the last receive action.
type ReceiveResult struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	Webcash string `json:"webcash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendResult is the outcome of the last send action. On success Webcash holds
// the claim code to hand to the payee.
type SendResult struct {
	Webcash string `json:"webcash,omitempty"`
	Memo    string `json:"memo,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WorkflowResult is the outcome of the last check or recover workflow. While
// the workflow runs, Lines grows as an append-only sequence of progress lines
// with stable ordinal keys; on failure the result is replaced by a single
// error carrying the message and offending parameters.
type WorkflowResult struct {
	Session string          `json:"session"`
	Success bool            `json:"success"`
	Lines   []progress.Line `json:"lines,omitempty"`
	Error   string          `json:"error,omitempty"`

	capture *progress.Capture
}

// snapshot returns a copy safe to hand out while the workflow still runs.
func (r *WorkflowResult) snapshot() *WorkflowResult {
	if r == nil {
		return nil
	}
	out := &WorkflowResult{
		Session: r.Session,
		Success: r.Success,
		Error:   r.Error,
	}
	if r.capture != nil {
		out.Lines = r.capture.Lines()
	} else {
		out.Lines = append([]progress.Line(nil), r.Lines...)
	}
	return out
}
