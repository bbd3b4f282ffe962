package observations

// Handle tracks one background task started by the Store.
type Handle struct {
	name string
	done chan struct{}
	err  error
}

func newHandle(name string) *Handle {
	return &Handle{
		name: name,
		done: make(chan struct{}),
	}
}

// finishedHandle returns a Handle for a task that never started.
func finishedHandle(name string, err error) *Handle {
	h := newHandle(name)
	h.err = err
	close(h.done)
	return h
}

// Name returns the task name.
func (h *Handle) Name() string {
	return h.name
}

// Done is closed when the task has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task exits and returns its terminal error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}
