package dialog

// Waterfall is a named ordered sequence of steps executed one per
// turn-resumption. It is immutable once registered.
type Waterfall struct {
	name  string
	steps []Step
}

// NewWaterfall creates a waterfall dialog from the given steps.
func NewWaterfall(name string, steps ...Step) *Waterfall {
	return &Waterfall{name: name, steps: steps}
}

// Name returns the registry name.
func (w *Waterfall) Name() string {
	return w.name
}

// Len returns the number of steps.
func (w *Waterfall) Len() int {
	return len(w.steps)
}
