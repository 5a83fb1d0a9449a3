package orchestrator

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventType 标识编排器对外广播的事件类型。
type EventType string

const (
	// EventHistoryChanged 表示历史列表结构发生变化（新批次、删除、清空）。
	EventHistoryChanged EventType = "history_changed"
	// EventRecordUpdated 表示单条记录状态变化。
	EventRecordUpdated EventType = "record_updated"
	// EventGenerationCompleted 表示一个批次整体结束（成功、失败或取消）。
	EventGenerationCompleted EventType = "generation_completed"
)

// Event 是广播给订阅者的通知。订阅是尽力而为的：消费慢的订阅者会
// 丢事件，不会阻塞编排器。
type Event struct {
	Type     EventType `json:"type"`
	GroupID  string    `json:"group_id,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
}

type eventBus struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[int]chan Event)}
}

// Subscribe 注册一个订阅者，返回事件通道和取消函数。
func (b *eventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

func (b *eventBus) publish(event Event) {
	b.mu.Lock()
	channels := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		channels = append(channels, ch)
	}
	b.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
			logrus.WithFields(logrus.Fields{
				"event": event.Type,
			}).Warn("dropping orchestrator event due to slow consumer")
		}
	}
}
