package rules

// Thunk is one resumable unit of work. It must call resume exactly once,
// either before returning or later when an answer arrives.
type Thunk func(resume func())

type stepState int

const (
	stepRunning stepState = iota
	stepSuspended
	stepResumed
)

// Queue is a FIFO of thunks driven by a trampoline. Thunks that resume
// synchronously are processed in a loop without growing the stack; a thunk
// that suspends parks the queue until its resume is called.
type Queue struct {
	items   []Thunk
	running bool
	onDrain func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items: make([]Thunk, 0, 8),
	}
}

// Enqueue appends thunks to the tail in the given order.
func (q *Queue) Enqueue(thunks ...Thunk) {
	q.items = append(q.items, thunks...)
}

// Push inserts thunks at the head, keeping their relative order, so they run
// before anything already queued.
func (q *Queue) Push(thunks ...Thunk) {
	if len(thunks) == 0 {
		return
	}
	items := make([]Thunk, 0, len(thunks)+len(q.items))
	items = append(items, thunks...)
	items = append(items, q.items...)
	q.items = items
}

// Len returns the number of thunks waiting to run.
func (q *Queue) Len() int {
	return len(q.items)
}

// Busy reports whether the queue is processing or parked on a thunk.
func (q *Queue) Busy() bool {
	return q.running
}

// Run starts processing. onDrain is called once the queue empties. Run
// returns false and does nothing if the queue is already busy.
func (q *Queue) Run(onDrain func()) bool {
	if q.running {
		return false
	}
	q.running = true
	q.onDrain = onDrain
	q.loop()
	return true
}

// Clear drops all pending thunks and the drain callback.
func (q *Queue) Clear() {
	q.items = q.items[:0]
	q.onDrain = nil
	q.running = false
}

func (q *Queue) loop() {
	for q.running {
		if len(q.items) == 0 {
			q.running = false
			done := q.onDrain
			q.onDrain = nil
			if done != nil {
				done()
			}
			return
		}

		next := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]

		state := stepRunning
		next(func() {
			switch state {
			case stepRunning:
				state = stepResumed
			case stepSuspended:
				state = stepResumed
				q.loop()
			}
		})

		if state == stepRunning {
			state = stepSuspended
			return
		}
	}
}
