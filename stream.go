package gudaprim

import "sync"

// Stream represents an ordered sequence of operations that execute
// asynchronously. Operations within a stream execute in order, so a launch
// observes every write of the launches submitted before it. Operations in
// different streams may execute concurrently.
//
// After a task fails, later tasks are skipped (events are still recorded)
// until Synchronize reports the failure.
type Stream struct {
	id    int
	ctx   *Context
	tasks chan task
	done  chan struct{}

	sendMu sync.RWMutex // guards closed against sends on tasks
	closed bool

	mu       sync.Mutex
	cond     *sync.Cond
	inflight int
	err      error
}

type task struct {
	fn     func() error
	always bool
}

func newStream(ctx *Context, id, depth int) *Stream {
	s := &Stream{
		id:    id,
		ctx:   ctx,
		tasks: make(chan task, depth),
		done:  make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	go s.worker()
	return s
}

// ID returns the stream identifier, unique within its context.
func (s *Stream) ID() int {
	return s.id
}

// worker processes tasks for a stream
func (s *Stream) worker() {
	for t := range s.tasks {
		s.mu.Lock()
		failed := s.err != nil
		s.mu.Unlock()

		var err error
		if t.always || !failed {
			err = t.fn()
		}

		s.mu.Lock()
		if err != nil && s.err == nil {
			s.err = err
		}
		s.inflight--
		if s.inflight == 0 {
			s.cond.Broadcast()
		}
		s.mu.Unlock()
	}
	close(s.done)
}

// Submit adds a task to the stream. The task's error, if any, is reported
// by the next Synchronize.
func (s *Stream) Submit(fn func() error) error {
	return s.submit(task{fn: fn})
}

func (s *Stream) submit(t task) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		return ErrStreamDestroyed
	}

	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	s.tasks <- t
	return nil
}

// Synchronize waits for all tasks in the stream to complete and returns the
// first error raised since the previous Synchronize.
func (s *Stream) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inflight > 0 {
		s.cond.Wait()
	}
	err := s.err
	s.err = nil
	return err
}

func (s *Stream) close() error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return ErrStreamDestroyed
	}
	s.closed = true
	close(s.tasks)
	s.sendMu.Unlock()

	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}
