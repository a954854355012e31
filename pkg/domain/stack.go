package domain

// PendingPrompt records the prompt a frame is suspended on.
type PendingPrompt struct {
	// Prompt is the registered prompt dialog name whose validator will
	// evaluate the next inbound message.
	Prompt string `json:"prompt"`

	// Text is the message that was sent when the prompt was issued. It is
	// re-sent verbatim when a rejection carries no retry text.
	Text string `json:"text,omitempty"`

	// Options is an open bag of prompt options (choices, ranges, ...).
	Options map[string]any `json:"options,omitempty"`
}

// Frame is one activation of a registered dialog: the dialog's name, the
// index of the next step to run, and dialog-local values the steps use to
// pass data forward.
type Frame struct {
	Dialog  string         `json:"dialog"`
	Step    int            `json:"step"`
	Values  map[string]any `json:"values,omitempty"`
	Pending *PendingPrompt `json:"pending,omitempty"`
}

// NewFrame creates a frame positioned at step 0.
func NewFrame(dialog string) *Frame {
	return &Frame{Dialog: dialog, Values: make(map[string]any)}
}

// Stack is the per-conversation dialog stack. The last frame is the active
// one; beginning a dialog from within a running one pushes, ending pops and
// resumes the parent at its recorded step index.
type Stack struct {
	Frames []*Frame `json:"frames,omitempty"`
}

// NewStack returns an empty (Idle) stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push makes frame the active one.
func (s *Stack) Push(frame *Frame) {
	s.Frames = append(s.Frames, frame)
}

// Pop removes and returns the active frame, or nil when Idle.
func (s *Stack) Pop() *Frame {
	if len(s.Frames) == 0 {
		return nil
	}
	top := s.Frames[len(s.Frames)-1]
	s.Frames = s.Frames[:len(s.Frames)-1]
	return top
}

// Active returns the top frame without removing it, or nil when Idle.
func (s *Stack) Active() *Frame {
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

// Depth reports the number of frames.
func (s *Stack) Depth() int {
	return len(s.Frames)
}

// Idle reports whether no dialog is in progress.
func (s *Stack) Idle() bool {
	return len(s.Frames) == 0
}

// AwaitingInput reports whether the active frame is suspended on a prompt.
func (s *Stack) AwaitingInput() bool {
	top := s.Active()
	return top != nil && top.Pending != nil
}

// Clear drops every frame unconditionally.
func (s *Stack) Clear() {
	s.Frames = nil
}
