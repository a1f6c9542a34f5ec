package view

// RenderState tracks where a view is in its render lifecycle.
type RenderState int

const (
	// NotCalled: nobody asked the view to render yet.
	NotCalled RenderState = iota
	// Requested: render was asked for, the view waits on its children.
	Requested
	// Started: the renderer is producing output.
	Started
	// Complete: output was committed to the sink.
	Complete
	// Failed: the renderer reported an error.
	Failed
	// Canceled: the view was torn down and ignores further events.
	Canceled
)

func (s RenderState) String() string {
	switch s {
	case NotCalled:
		return "not_called"
	case Requested:
		return "requested"
	case Started:
		return "started"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}
