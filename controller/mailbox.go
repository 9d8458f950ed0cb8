package controller

import "sync"

// mailbox is an unbounded FIFO of tasks. Put never blocks.
type mailbox struct {
	mutex  sync.Mutex
	tasks  []func()
	wake   chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{
		wake: make(chan struct{}, 1),
	}
}

func (m *mailbox) put(task func()) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return false
	}
	m.tasks = append(m.tasks, task)

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// drain takes every queued task.
func (m *mailbox) drain() []func() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tasks := m.tasks
	m.tasks = nil
	return tasks
}

func (m *mailbox) close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	m.tasks = nil
}
