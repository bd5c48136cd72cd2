package eventloop

import (
	"container/heap"
	"time"
)

// TimerID identifies a scheduled timer. Zero is never issued.
type TimerID uint32

type timer struct {
	task     Task
	deadline time.Time
	interval time.Duration
	seq      uint64
	id       TimerID
	index    int
}

// timerHeap orders timers by deadline, then by scheduling order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// minInterval keeps a zero-delay repeating timer from starving the loop.
const minInterval = time.Millisecond

// SetTimeout runs task once after d. Negative delays count as zero.
func (l *Loop) SetTimeout(d time.Duration, task Task) TimerID {
	return l.schedule(max(d, 0), 0, task)
}

// SetInterval runs task every d until cancelled.
func (l *Loop) SetInterval(d time.Duration, task Task) TimerID {
	d = max(d, minInterval)
	return l.schedule(d, d, task)
}

func (l *Loop) schedule(delay, interval time.Duration, task Task) TimerID {
	l.nextID++
	if l.nextID == 0 {
		l.nextID++
	}
	l.seq++
	t := &timer{
		task:     task,
		deadline: l.clock.Now().Add(delay),
		interval: interval,
		seq:      l.seq,
		id:       l.nextID,
	}
	heap.Push(&l.timers, t)
	l.byID[t.id] = t
	return t.id
}

// Cancel stops a timer. It is safe to call for timers that already fired,
// were already cancelled or never existed.
func (l *Loop) Cancel(id TimerID) {
	t, ok := l.byID[id]
	if !ok {
		return
	}
	delete(l.byID, id)
	if t.index >= 0 {
		heap.Remove(&l.timers, t.index)
	}
}

// Timers returns the number of scheduled timers.
func (l *Loop) Timers() int {
	return len(l.byID)
}

// popDue removes and returns the earliest timer due at now, re-arming
// repeating timers.
func (l *Loop) popDue(now time.Time) *timer {
	if len(l.timers) == 0 || l.timers[0].deadline.After(now) {
		return nil
	}
	t := heap.Pop(&l.timers).(*timer)
	if t.interval > 0 {
		l.seq++
		t.seq = l.seq
		t.deadline = now.Add(t.interval)
		heap.Push(&l.timers, t)
	} else {
		delete(l.byID, t.id)
	}
	return t
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].deadline, true
}
