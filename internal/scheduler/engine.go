package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrTriggerInPast      = errors.New("scheduler: trigger time is not in the future")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
	ErrInvalidKey         = errors.New("scheduler: invalid key")
)

type Delivery int

const (
	BestEffort Delivery = iota
	Exact
)

func (d Delivery) String() string {
	if d == Exact {
		return "exact"
	}
	return "best_effort"
}

// Key identifies one pending alarm. Scheduling an alarm whose key is already
// pending replaces it.
type Key struct {
	Kind string
	Code int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Kind, k.Code)
}

type Alarm struct {
	Key       Key
	TriggerAt time.Time
	Delivery  Delivery
	Payload   any
}

type entry struct {
	alarm    Alarm
	deadline time.Time
	index    int
}

type priorityQueue []*entry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].deadline.Before(pq[j].deadline)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*pq)
	*pq = append(*pq, e)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*pq = old[0 : n-1]
	return e
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExactCapability records whether precise wakeups are available. Without
// it exact alarms are delivered as best-effort.
func WithExactCapability(ok bool) Option {
	return func(e *Engine) {
		e.exactCapable = ok
	}
}

// WithCoalesceWindow bounds how late a best-effort alarm may be delivered.
func WithCoalesceWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.coalesce = d
		}
	}
}

type Engine struct {
	mu           sync.Mutex
	queue        priorityQueue
	byKey        map[Key]*entry
	out          chan Alarm
	wakeup       chan struct{}
	stopCh       chan struct{}
	doneCh       chan struct{}
	started      bool
	stopped      bool
	dropped      uint64
	now          func() time.Time
	logger       *slog.Logger
	exactCapable bool
	coalesce     time.Duration
}

func NewEngine(bufferSize int, opts ...Option) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	e := &Engine{
		queue:        make(priorityQueue, 0),
		byKey:        make(map[Key]*entry),
		out:          make(chan Alarm, bufferSize),
		wakeup:       make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		now:          time.Now,
		logger:       slog.Default(),
		exactCapable: true,
		coalesce:     time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) C() <-chan Alarm {
	return e.out
}

func (e *Engine) ExactCapable() bool {
	return e.exactCapable
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule arms a. A pending alarm with the same key is replaced.
func (e *Engine) Schedule(a Alarm) error {
	if a.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	if a.Key.Kind == "" {
		return ErrInvalidKey
	}
	if now := e.now(); !a.TriggerAt.After(now) {
		e.logger.Warn("scheduler: skipping alarm in the past",
			slog.String("key", a.Key.String()),
			slog.Time("trigger_at", a.TriggerAt),
			slog.Time("now", now))
		return fmt.Errorf("%w: %s", ErrTriggerInPast, a.Key)
	}
	if a.Delivery == Exact && !e.exactCapable {
		e.logger.Warn("scheduler: exact timing unavailable, delivering best-effort",
			slog.String("key", a.Key.String()))
		a.Delivery = BestEffort
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}

	deadline := a.TriggerAt
	if a.Delivery == BestEffort {
		deadline = deadline.Add(e.coalesce)
	}
	if existing, ok := e.byKey[a.Key]; ok {
		existing.alarm = a
		existing.deadline = deadline
		heap.Fix(&e.queue, existing.index)
	} else {
		ent := &entry{alarm: a, deadline: deadline}
		heap.Push(&e.queue, ent)
		e.byKey[a.Key] = ent
	}
	e.signalWakeup()
	return nil
}

func (e *Engine) Cancel(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byKey[key]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, ent.index)
	delete(e.byKey, key)
	e.signalWakeup()
	return true
}

// CancelKind removes every pending alarm of the given kind.
func (e *Engine) CancelKind(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for key, ent := range e.byKey {
		if key.Kind != kind {
			continue
		}
		heap.Remove(&e.queue, ent.index)
		delete(e.byKey, key)
		n++
	}
	if n > 0 {
		e.signalWakeup()
	}
	return n
}

func (e *Engine) CancelAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.queue)
	e.queue = make(priorityQueue, 0)
	e.byKey = make(map[Key]*entry)
	e.signalWakeup()
	return n
}

func (e *Engine) Get(key Key) (Alarm, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byKey[key]
	if !ok {
		return Alarm{}, false
	}
	return ent.alarm, true
}

// Pending returns a snapshot ordered by trigger time.
func (e *Engine) Pending() []Alarm {
	e.mu.Lock()
	out := make([]Alarm, 0, len(e.queue))
	for _, ent := range e.queue {
		out = append(out, ent.alarm)
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggerAt.Equal(out[j].TriggerAt) {
			return out[i].Key.String() < out[j].Key.String()
		}
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, a := range e.popDue(e.now()) {
				select {
				case e.out <- a:
				default:
					atomic.AddUint64(&e.dropped, 1)
					e.logger.Warn("scheduler: output full, alarm dropped", slog.String("key", a.Key.String()))
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].deadline, true
}

// popDue removes alarms whose deadline passed and every best-effort alarm
// that is already due, so they coalesce into this wakeup.
func (e *Engine) popDue(now time.Time) []Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alarm, 0)
	for len(e.queue) > 0 && !e.queue[0].deadline.After(now) {
		ent := heap.Pop(&e.queue).(*entry)
		delete(e.byKey, ent.alarm.Key)
		out = append(out, ent.alarm)
	}
	for i := 0; i < len(e.queue); {
		ent := e.queue[i]
		if ent.alarm.Delivery != BestEffort || ent.alarm.TriggerAt.After(now) {
			i++
			continue
		}
		heap.Remove(&e.queue, i)
		delete(e.byKey, ent.alarm.Key)
		out = append(out, ent.alarm)
		i = 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
