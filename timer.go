package gudaprim

import (
	"sync"
	"time"
)

// Timer measures one interval at a time. Start and Stop must alternate;
// Elapsed reports the most recently completed interval and fails while an
// interval is open or before the first one completes.
type Timer interface {
	Start() error
	Stop() error
	Elapsed() (time.Duration, error)
}

// Measure runs fn inside one interval of t. The timer is stopped even when
// fn fails; fn's error takes precedence over a Stop error.
func Measure(t Timer, fn func() error) error {
	if err := t.Start(); err != nil {
		return err
	}
	err := fn()
	if stopErr := t.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// ElapsedMillis returns t's last interval in fractional milliseconds.
func ElapsedMillis(t Timer) (float64, error) {
	d, err := t.Elapsed()
	if err != nil {
		return 0, err
	}
	return float64(d) / float64(time.Millisecond), nil
}

type timerState struct {
	mu       sync.Mutex
	running  bool
	measured bool
	elapsed  time.Duration
}

func (ts *timerState) Elapsed() (time.Duration, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.running || !ts.measured {
		return 0, ErrNoMeasurement
	}
	return ts.elapsed, nil
}

// HostTimer measures wall-clock time on the host.
type HostTimer struct {
	timerState
	start time.Time
}

// NewHostTimer returns an idle host timer.
func NewHostTimer() *HostTimer {
	return &HostTimer{}
}

// Start opens an interval.
func (t *HostTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrTimerRunning
	}
	t.running = true
	t.measured = false
	t.start = time.Now()
	return nil
}

// Stop closes the open interval.
func (t *HostTimer) Stop() error {
	end := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return ErrTimerNotRunning
	}
	t.running = false
	t.measured = true
	t.elapsed = end.Sub(t.start)
	return nil
}

// DeviceTimer measures time on a stream by recording events, so the
// interval covers the device work queued between Start and Stop rather
// than the time the host spent queuing it.
type DeviceTimer struct {
	timerState
	stream      *Stream
	start, stop *Event
}

// NewDeviceTimer returns an idle timer recording on stream.
func NewDeviceTimer(stream *Stream) *DeviceTimer {
	return &DeviceTimer{
		stream: stream,
		start:  NewEvent(),
		stop:   NewEvent(),
	}
}

// Start records the start event.
func (t *DeviceTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrTimerRunning
	}
	if err := t.stream.Record(t.start); err != nil {
		return err
	}
	t.running = true
	t.measured = false
	return nil
}

// Stop records the stop event and waits for it.
func (t *DeviceTimer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return ErrTimerNotRunning
	}
	t.running = false
	if err := t.stream.Record(t.stop); err != nil {
		return err
	}
	if err := t.stop.Synchronize(); err != nil {
		return err
	}
	elapsed, err := ElapsedTime(t.start, t.stop)
	if err != nil {
		return err
	}
	t.elapsed = elapsed
	t.measured = true
	return nil
}

// Event marks a point in a stream. It completes when every task queued on
// the stream before it has finished, mirroring cudaEventRecord.
type Event struct {
	mu   sync.Mutex
	at   time.Time
	done chan struct{}
}

// NewEvent returns an unrecorded event.
func NewEvent() *Event {
	return &Event{}
}

// Record queues ev on the stream. Recording again replaces the previous
// timestamp. Events are recorded even when an earlier task failed.
func (s *Stream) Record(ev *Event) error {
	done := make(chan struct{})
	ev.mu.Lock()
	ev.done = done
	ev.at = time.Time{}
	ev.mu.Unlock()

	err := s.submit(task{always: true, fn: func() error {
		ev.mu.Lock()
		ev.at = time.Now()
		ev.mu.Unlock()
		close(done)
		return nil
	}})
	if err != nil {
		ev.mu.Lock()
		ev.done = nil
		ev.mu.Unlock()
	}
	return err
}

// Synchronize blocks until the event's most recent record completes.
func (ev *Event) Synchronize() error {
	ev.mu.Lock()
	done := ev.done
	ev.mu.Unlock()
	if done == nil {
		return ErrEventNotRecorded
	}
	<-done
	return nil
}

// Query reports whether the most recent record has completed.
func (ev *Event) Query() bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return !ev.at.IsZero()
}

// ElapsedTime returns the time between two completed events.
func ElapsedTime(start, stop *Event) (time.Duration, error) {
	start.mu.Lock()
	a := start.at
	start.mu.Unlock()
	stop.mu.Lock()
	b := stop.at
	stop.mu.Unlock()
	if a.IsZero() || b.IsZero() {
		return 0, ErrEventNotRecorded
	}
	return b.Sub(a), nil
}
