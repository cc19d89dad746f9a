// SPDX-License-Identifier: MIT
package session

import "slices"

// Task is a callback due at a deadline on the session clock.
type Task struct {
	id       uint64
	name     string
	deadline float64
	fn       func(now float64)
	done     bool
}

func (t *Task) Name() string { return t.name }

// Deadline is the session time the task runs at.
func (t *Task) Deadline() float64 { return t.deadline }

// Done reports whether the task ran or was cancelled.
func (t *Task) Done() bool { return t.done }

// Scheduler runs delayed callbacks from the tick loop. Time only moves through
// Advance, so tests control it exactly. Not safe for concurrent use.
type Scheduler struct {
	now    float64
	nextID uint64
	tasks  []*Task
	due    []*Task
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler clock in seconds.
func (s *Scheduler) Now() float64 { return s.now }

// After schedules fn to run delay seconds from now. A non-positive delay runs
// it on the next Advance.
func (s *Scheduler) After(delay float64, name string, fn func(now float64)) *Task {
	s.nextID++
	t := &Task{
		id:       s.nextID,
		name:     name,
		deadline: s.now + max(delay, 0),
		fn:       fn,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Cancel removes a pending task. It returns false if the task already ran,
// was cancelled before or is nil.
func (s *Scheduler) Cancel(t *Task) bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	s.tasks = slices.DeleteFunc(s.tasks, func(p *Task) bool { return p == t })
	return true
}

// Pending returns the number of tasks waiting to run.
func (s *Scheduler) Pending() int { return len(s.tasks) }

// Advance moves the clock by dt and runs every task now due, earliest
// deadline first and in scheduling order on ties. Tasks scheduled by a
// callback run in the same Advance if they are already due. It returns the
// number of tasks run.
func (s *Scheduler) Advance(dt float64) int {
	if dt > 0 {
		s.now += dt
	}

	ran := 0
	for {
		s.due = s.due[:0]
		for _, t := range s.tasks {
			if t.deadline <= s.now {
				s.due = append(s.due, t)
			}
		}
		if len(s.due) == 0 {
			return ran
		}
		slices.SortFunc(s.due, func(a, b *Task) int {
			switch {
			case a.deadline < b.deadline:
				return -1
			case a.deadline > b.deadline:
				return 1
			default:
				return int(a.id) - int(b.id)
			}
		})
		s.tasks = slices.DeleteFunc(s.tasks, func(t *Task) bool { return t.deadline <= s.now })

		for _, t := range s.due {
			if t.done {
				continue // Cancelled by an earlier callback in this batch.
			}
			t.done = true
			t.fn(s.now)
			ran++
		}
	}
}

// Reset drops every pending task and rewinds the clock to zero.
func (s *Scheduler) Reset() {
	for _, t := range s.tasks {
		t.done = true
	}
	s.tasks = s.tasks[:0]
	s.now = 0
}
