package hub

import (
	"context"
	"sync"
)

// DefaultBuffer 佇列預設初始容量
const DefaultBuffer = 1000

// Hub 事件派送中心
//
// Publish 只把事件排進佇列就返回，永遠不會等訂閱者；
// 由單一 goroutine 依序交給每個訂閱者，所以收到的順序與發佈順序一致。
type Hub[T any] struct {
	// mu 保護 queue 與 closed
	mu     sync.Mutex
	queue  []T
	closed bool
	// 有新事件時通知 run loop (容量 1，重複通知會合併)
	wake chan struct{}

	subMu       sync.RWMutex
	subscribers map[uint64]func(T)
	nextID      uint64

	// run loop 結束時關閉
	done    chan struct{}
	started sync.Once
}

// New 建立 Hub，buffer 為佇列初始容量，<= 0 時使用 DefaultBuffer
func New[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{
		queue:       make([]T, 0, buffer),
		wake:        make(chan struct{}, 1),
		subscribers: make(map[uint64]func(T)),
		done:        make(chan struct{}),
	}
}

// Subscribe 註冊訂閱者，回傳取消訂閱函式
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = fn
	return func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		delete(h.subscribers, id)
	}
}

// Publish 排入佇列後立即返回
//
// 回傳:
//
//	bool: false 代表 Hub 已停止，事件被丟棄
func (h *Hub[T]) Publish(ev T) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.queue = append(h.queue, ev)
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
	return true
}

// Start 啟動派送迴圈 (非同步)，只有第一次呼叫有效
func (h *Hub[T]) Start(ctx context.Context) {
	h.started.Do(func() {
		go h.run(ctx)
	})
}

// Done run loop 結束後關閉
func (h *Hub[T]) Done() <-chan struct{} {
	return h.done
}

func (h *Hub[T]) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			// 先關閉入口再取出剩下的事件，之後的 Publish 一律回傳 false
			h.mu.Lock()
			h.closed = true
			h.mu.Unlock()
			h.flush()
			return
		case <-h.wake:
			h.flush()
		}
	}
}

// flush 取出目前佇列中所有事件並依序派送
func (h *Hub[T]) flush() {
	h.mu.Lock()
	batch := h.queue
	h.queue = make([]T, 0, cap(batch))
	h.mu.Unlock()

	for _, ev := range batch {
		h.dispatch(ev)
	}
}

func (h *Hub[T]) dispatch(ev T) {
	h.subMu.RLock()
	fns := make([]func(T), 0, len(h.subscribers))
	for _, fn := range h.subscribers {
		fns = append(fns, fn)
	}
	h.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
