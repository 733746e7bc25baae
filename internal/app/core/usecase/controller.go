package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

// DefaultUser 尚未登入時顯示的使用者
var DefaultUser = domain.User{
	UserName:    "Joe Smith",
	MemberSince: "11/22/99",
}

// Controller 帳務狀態的唯一擁有者
//
// 結構:
//
//	state: 目前快照，只在持有 mu 時替換
//	mu: 保護 state，所有修改都序列化；事件在同一段鎖內排入，順序與版本一致
//	source: 遠端資料來源
//	events: 狀態變更通知 (可為 nil)，Publish 不可阻塞
type Controller struct {
	mu    sync.RWMutex
	state domain.State

	events EventBus

	source Source
	logger *slog.Logger
	now    func() time.Time

	// 同步重試
	retryAttempts int
	retryInterval time.Duration
}

// Option 定義了 Controller 的配置選項函數
type Option func(*Controller)

// WithLogger 設定錯誤回報用的 logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithEventBus 設定狀態變更通知
func WithEventBus(bus EventBus) Option {
	return func(c *Controller) {
		c.events = bus
	}
}

// WithUser 設定預設使用者
func WithUser(user domain.User) Option {
	return func(c *Controller) {
		c.state.User = user
	}
}

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithRetry 設定初次同步的重試次數與間隔，attempts < 1 視為 1
func WithRetry(attempts int, interval time.Duration) Option {
	return func(c *Controller) {
		if attempts < 1 {
			attempts = 1
		}
		c.retryAttempts = attempts
		c.retryInterval = interval
	}
}

// NewController 建立一個新的 Controller，狀態為預設值 (空清單、餘額 0)
//
// 參數:
//
//	source: 遠端資料來源
//	opts: 配置選項
//
// 回傳:
//
//	*Controller: Controller 實例
func NewController(source Source, opts ...Option) *Controller {
	c := &Controller{
		state:         domain.NewState(DefaultUser),
		source:        source,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
		retryAttempts: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize 同時讀取收入與支出，兩者都成功才一次替換兩份清單
//
// 任一失敗時狀態保持不變，錯誤只寫入 log，不回傳給呼叫端。
// 執行期間不可同時呼叫 AddCredit / AddDebit，否則新增的資料會被覆蓋。
func (c *Controller) Initialize(ctx context.Context) {
	if err := c.Sync(ctx); err != nil {
		c.logger.Error("initial sync failed, keeping default state",
			"error", err,
			"attempts", c.retryAttempts,
		)
	}
}

// Sync 與 Initialize 相同，但把錯誤回傳給呼叫端
//
// 參數:
//
//	ctx: 上下文，取消時中止讀取與重試
//
// 回傳:
//
//	error: *domain.FetchError 或 ctx 的錯誤
func (c *Controller) Sync(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		var credits, debits []domain.Transaction
		credits, debits, err = c.fetchBoth(ctx)
		if err == nil {
			c.commit(domain.EventInitialized, nil, func(s domain.State) domain.State {
				return s.WithLists(credits, debits)
			})
			return nil
		}
		if attempt == c.retryAttempts {
			break
		}
		c.logger.Warn("sync failed, retrying",
			"error", err,
			"attempt", attempt,
			"retry_in", c.retryInterval,
		)
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(c.retryInterval):
		}
	}
	return err
}

// fetchBoth 平行讀取，第一個失敗會取消另一個
func (c *Controller) fetchBoth(ctx context.Context) (credits, debits []domain.Transaction, err error) {
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		list, err := c.source.FetchCredits(ctx)
		if err != nil {
			return asFetchError("credits", err)
		}
		credits, err = c.normalize("credits", list)
		return err
	})
	p.Go(func(ctx context.Context) error {
		list, err := c.source.FetchDebits(ctx)
		if err != nil {
			return asFetchError("debits", err)
		}
		debits, err = c.normalize("debits", list)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	return credits, debits, nil
}

// normalize 驗證遠端紀錄並補上 ID，保留來源順序
func (c *Controller) normalize(resource string, list []domain.Transaction) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(list))
	for _, tx := range list {
		if err := tx.Validate(); err != nil {
			return nil, &domain.FetchError{Resource: resource, Err: err}
		}
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		out = append(out, tx)
	}
	return out, nil
}

func asFetchError(resource string, err error) error {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &domain.FetchError{Resource: resource, Err: err}
}

// AddCredit 新增一筆收入並重算餘額
//
// 參數:
//
//	entry: 交易，OccurredAt 零值時補上當下時間
//
// 回傳:
//
//	domain.Transaction: 實際寫入的交易
//	domain.State: 這次提交後的快照 (不含之後其他寫入)
//	error: *domain.ValidationError，此時狀態不變
func (c *Controller) AddCredit(entry domain.Transaction) (domain.Transaction, domain.State, error) {
	return c.add(domain.EventCreditAdded, entry)
}

// AddDebit 新增一筆支出並重算餘額
func (c *Controller) AddDebit(entry domain.Transaction) (domain.Transaction, domain.State, error) {
	return c.add(domain.EventDebitAdded, entry)
}

func (c *Controller) add(kind domain.EventKind, entry domain.Transaction) (domain.Transaction, domain.State, error) {
	if err := entry.Validate(); err != nil {
		return domain.Transaction{}, domain.State{}, err
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = c.now().UTC()
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	state := c.commit(kind, &entry, func(s domain.State) domain.State {
		if kind == domain.EventCreditAdded {
			return s.WithCredit(entry)
		}
		return s.WithDebit(entry)
	})
	return entry, state, nil
}

// SetCurrentUser 模擬登入：替換 UserName，保留 MemberSince
func (c *Controller) SetCurrentUser(update domain.UserUpdate) (domain.State, error) {
	if err := update.Validate(); err != nil {
		return domain.State{}, err
	}
	return c.commit(domain.EventUserChanged, nil, func(s domain.State) domain.State {
		return s.WithUser(update)
	}), nil
}

// commit 替換快照並排入事件，回傳這次提交的快照複本
func (c *Controller) commit(kind domain.EventKind, entry *domain.Transaction, update func(domain.State) domain.State) domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = update(c.state)
	if c.events != nil {
		ev := domain.NewEvent(kind, c.state, entry, c.now().UTC())
		if !c.events.Publish(ev) {
			c.logger.Warn("event bus stopped, state change not published",
				"kind", ev.Kind,
				"version", ev.Version,
			)
		}
	}
	return c.snapshotLocked()
}

// AccountBalance 取得兩位小數的餘額字串
func (c *Controller) AccountBalance() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.BalanceString()
}

// CreditList 取得收入清單複本
func (c *Controller) CreditList() []domain.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyList(c.state.Credits)
}

// DebitList 取得支出清單複本
func (c *Controller) DebitList() []domain.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyList(c.state.Debits)
}

// CurrentUser 取得目前使用者
func (c *Controller) CurrentUser() domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.User
}

// Snapshot 取得一致的快照 (清單為複本)
func (c *Controller) Snapshot() domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// snapshotLocked 呼叫端必須持有 mu
func (c *Controller) snapshotLocked() domain.State {
	s := c.state
	s.Credits = copyList(s.Credits)
	s.Debits = copyList(s.Debits)
	return s
}

// Subscribe 訂閱狀態變更，沒有設定 EventBus 時不會收到任何事件
func (c *Controller) Subscribe(fn func(domain.Event)) (unsubscribe func()) {
	if c.events == nil {
		return func() {}
	}
	return c.events.Subscribe(fn)
}

func copyList(list []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(list))
	copy(out, list)
	return out
}
