package events

import (
	"context"
	"sync"
)

// MockPublisher records published events for assertions in tests.
type MockPublisher struct {
	mu        sync.RWMutex
	issued    []TicketIssuedEvent
	cancelled []TicketCancelledEvent

	PublishTicketIssuedFunc    func(ctx context.Context, event TicketIssuedEvent) error
	PublishTicketCancelledFunc func(ctx context.Context, event TicketCancelledEvent) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishTicketIssued(ctx context.Context, event TicketIssuedEvent) error {
	if m.PublishTicketIssuedFunc != nil {
		return m.PublishTicketIssuedFunc(ctx, event)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.issued = append(m.issued, event)

	return nil
}

func (m *MockPublisher) PublishTicketCancelled(ctx context.Context, event TicketCancelledEvent) error {
	if m.PublishTicketCancelledFunc != nil {
		return m.PublishTicketCancelledFunc(ctx, event)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelled = append(m.cancelled, event)

	return nil
}

func (m *MockPublisher) IssuedEvents() []TicketIssuedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]TicketIssuedEvent, len(m.issued))
	copy(events, m.issued)
	return events
}

func (m *MockPublisher) CancelledEvents() []TicketCancelledEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]TicketCancelledEvent, len(m.cancelled))
	copy(events, m.cancelled)
	return events
}

func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.issued = nil
	m.cancelled = nil
}

func (m *MockPublisher) Close() error {
	return nil
}
