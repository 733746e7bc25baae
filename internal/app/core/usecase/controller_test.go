package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/pkg/hub"
)

// fakeSource 可設定回傳值與錯誤的資料來源
type fakeSource struct {
	credits    []domain.Transaction
	debits     []domain.Transaction
	creditsErr error
	debitsErr  error

	// 前 failTimes 次呼叫 FetchCredits 回傳錯誤
	failTimes int32
	calls     atomic.Int32
}

func (s *fakeSource) FetchCredits(ctx context.Context) ([]domain.Transaction, error) {
	n := s.calls.Add(1)
	if n <= s.failTimes {
		return nil, errors.New("temporary failure")
	}
	return s.credits, s.creditsErr
}

func (s *fakeSource) FetchDebits(ctx context.Context) ([]domain.Transaction, error) {
	return s.debits, s.debitsErr
}

// syncBus 同步派送，測試時方便檢查順序
type syncBus struct {
	mu     sync.Mutex
	events []domain.Event
	subs   []func(domain.Event)
}

func (b *syncBus) Publish(ev domain.Event) bool {
	b.mu.Lock()
	b.events = append(b.events, ev)
	subs := append([]func(domain.Event){}, b.subs...)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
	return true
}

func (b *syncBus) Subscribe(fn func(domain.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
	return func() {}
}

func (b *syncBus) Events() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event{}, b.events...)
}

func entry(description, amount string) domain.Transaction {
	return domain.Transaction{Description: description, Amount: decimal.RequireFromString(amount)}
}

func TestController_Defaults(t *testing.T) {
	c := NewController(&fakeSource{})

	assert.Equal(t, "0.00", c.AccountBalance())
	assert.Empty(t, c.CreditList())
	assert.Empty(t, c.DebitList())
	assert.Equal(t, DefaultUser, c.CurrentUser())
}

func TestController_InitializeThenAdd(t *testing.T) {
	source := &fakeSource{
		credits: []domain.Transaction{entry("Salary", "100")},
		debits:  []domain.Transaction{entry("Groceries", "40")},
	}
	bus := &syncBus{}
	c := NewController(source, WithEventBus(bus))

	c.Initialize(context.Background())
	assert.Equal(t, "60.00", c.AccountBalance())
	require.Len(t, c.CreditList(), 1)
	assert.NotEqual(t, uuid.Nil, c.CreditList()[0].ID)

	added, state, err := c.AddCredit(entry("Refund", "25.50"))
	require.NoError(t, err)
	assert.Equal(t, "85.50", c.AccountBalance())
	assert.Equal(t, "85.50", state.BalanceString())
	assert.NotEqual(t, uuid.Nil, added.ID)
	assert.False(t, added.OccurredAt.IsZero())

	credits := c.CreditList()
	require.Len(t, credits, 2)
	assert.Equal(t, "Salary", credits[0].Description)
	assert.Equal(t, "Refund", credits[1].Description)

	events := bus.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventInitialized, events[0].Kind)
	assert.Equal(t, "60.00", events[0].Balance)
	assert.Equal(t, domain.EventCreditAdded, events[1].Kind)
	assert.Equal(t, "85.50", events[1].Balance)
	assert.Equal(t, "Refund", events[1].Entry.Description)
}

func TestController_AddDebit(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := NewController(&fakeSource{})

	e := entry("Rent", "40")
	e.OccurredAt = at
	added, _, err := c.AddDebit(e)
	require.NoError(t, err)

	assert.Equal(t, at, added.OccurredAt)
	assert.Equal(t, "-40.00", c.AccountBalance())
	assert.Len(t, c.DebitList(), 1)
	assert.Empty(t, c.CreditList())
}

func TestController_InitializePartialFailureKeepsState(t *testing.T) {
	cases := map[string]*fakeSource{
		"credits fail": {
			creditsErr: errors.New("boom"),
			debits:     []domain.Transaction{entry("Groceries", "40")},
		},
		"debits fail": {
			credits:   []domain.Transaction{entry("Salary", "100")},
			debitsErr: errors.New("boom"),
		},
	}
	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			bus := &syncBus{}
			c := NewController(source, WithEventBus(bus))
			c.Initialize(context.Background())

			assert.Equal(t, "0.00", c.AccountBalance())
			assert.Empty(t, c.CreditList())
			assert.Empty(t, c.DebitList())
			assert.Empty(t, bus.Events())
		})
	}
}

func TestController_SyncReturnsFetchError(t *testing.T) {
	c := NewController(&fakeSource{debitsErr: errors.New("boom")})

	err := c.Sync(context.Background())
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "debits", fe.Resource)
}

func TestController_SyncRejectsInvalidRecord(t *testing.T) {
	c := NewController(&fakeSource{
		credits: []domain.Transaction{entry("", "10")},
	})

	err := c.Sync(context.Background())
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "credits", fe.Resource)
	assert.ErrorIs(t, err, domain.ErrDescriptionRequired)
	assert.Empty(t, c.CreditList())
}

func TestController_SyncRetries(t *testing.T) {
	source := &fakeSource{
		credits:   []domain.Transaction{entry("Salary", "100")},
		failTimes: 2,
	}
	c := NewController(source, WithRetry(3, time.Millisecond))

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, "100.00", c.AccountBalance())
	assert.Equal(t, int32(3), source.calls.Load())
}

func TestController_SyncStopsOnCancel(t *testing.T) {
	source := &fakeSource{failTimes: 100}
	c := NewController(source, WithRetry(5, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Sync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "0.00", c.AccountBalance())
}

func TestController_ValidationLeavesStateUnchanged(t *testing.T) {
	bus := &syncBus{}
	c := NewController(&fakeSource{}, WithEventBus(bus))
	_, _, err := c.AddCredit(entry("Salary", "100"))
	require.NoError(t, err)

	_, _, err = c.AddCredit(entry("  ", "5"))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	_, _, err = c.AddDebit(entry("", "5"))
	require.Error(t, err)

	assert.Equal(t, "100.00", c.AccountBalance())
	assert.Len(t, c.CreditList(), 1)
	assert.Empty(t, c.DebitList())
	assert.Len(t, bus.Events(), 1)
}

func TestController_SetCurrentUserKeepsMemberSince(t *testing.T) {
	bus := &syncBus{}
	c := NewController(&fakeSource{}, WithEventBus(bus))

	state, err := c.SetCurrentUser(domain.UserUpdate{UserName: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.User{UserName: "alice", MemberSince: "11/22/99"}, c.CurrentUser())
	assert.Equal(t, c.CurrentUser(), state.User)

	_, err = c.SetCurrentUser(domain.UserUpdate{UserName: ""})
	assert.ErrorIs(t, err, domain.ErrUserNameRequired)
	assert.Equal(t, "alice", c.CurrentUser().UserName)

	events := bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUserChanged, events[0].Kind)
	assert.Equal(t, "alice", events[0].UserName)
}

func TestController_WithUser(t *testing.T) {
	user := domain.User{UserName: "bob", MemberSince: "01/01/24"}
	c := NewController(&fakeSource{}, WithUser(user))
	assert.Equal(t, user, c.CurrentUser())
}

func TestController_ListsAreCopies(t *testing.T) {
	c := NewController(&fakeSource{})
	_, _, err := c.AddCredit(entry("Salary", "100"))
	require.NoError(t, err)

	list := c.CreditList()
	list[0].Description = "changed"
	assert.Equal(t, "Salary", c.CreditList()[0].Description)

	snap := c.Snapshot()
	snap.Credits[0].Description = "changed"
	assert.Equal(t, "Salary", c.CreditList()[0].Description)
}

func TestController_ConcurrentAdds(t *testing.T) {
	bus := &syncBus{}
	c := NewController(&fakeSource{}, WithEventBus(bus))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _, err := c.AddCredit(entry(fmt.Sprintf("credit %d", i), "1.10"))
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _, err := c.AddDebit(entry(fmt.Sprintf("debit %d", i), "0.10"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "50.00", c.AccountBalance())
	assert.Len(t, c.CreditList(), 50)
	assert.Len(t, c.DebitList(), 50)

	// 事件版本依提交順序遞增
	events := bus.Events()
	require.Len(t, events, 100)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Version)
	}
	assert.Equal(t, uint64(100), c.Snapshot().Version)
}

func TestController_SubscribeWithoutBus(t *testing.T) {
	c := NewController(&fakeSource{})
	unsubscribe := c.Subscribe(func(domain.Event) { t.Fatal("unexpected event") })
	_, _, err := c.AddCredit(entry("Salary", "1"))
	require.NoError(t, err)
	unsubscribe()
}

func TestController_WithClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(&fakeSource{}, WithClock(func() time.Time { return now }))

	added, _, err := c.AddCredit(entry("Salary", "1"))
	require.NoError(t, err)
	assert.Equal(t, now, added.OccurredAt)
}

func TestController_SlowSubscriberDoesNotBlockReaders(t *testing.T) {
	events := hub.New[domain.Event](1)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-events.Done()
	}()
	events.Start(ctx)

	c := NewController(&fakeSource{}, WithEventBus(events))
	var seen atomic.Int32
	c.Subscribe(func(ev domain.Event) {
		// 訂閱者讀取 Controller 也不可卡住
		_ = c.AccountBalance()
		time.Sleep(300 * time.Millisecond)
		seen.Add(1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.AddCredit(entry("Tip", "1"))
			assert.NoError(t, err)
		}()
	}

	start := time.Now()
	wg.Wait()
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	start = time.Now()
	assert.Equal(t, "5.00", c.AccountBalance())
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	assert.Eventually(t, func() bool { return seen.Load() == 5 }, 5*time.Second, 10*time.Millisecond)
}

func TestController_StoppedBusStillCommits(t *testing.T) {
	events := hub.New[domain.Event](0)
	ctx, cancel := context.WithCancel(context.Background())
	events.Start(ctx)
	cancel()
	<-events.Done()

	c := NewController(&fakeSource{}, WithEventBus(events))
	_, state, err := c.AddCredit(entry("Salary", "10"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", state.BalanceString())
	assert.Equal(t, "10.00", c.AccountBalance())
}

func TestController_ReturnsCommittedState(t *testing.T) {
	c := NewController(&fakeSource{})

	first, firstState, err := c.AddCredit(entry("Salary", "100"))
	require.NoError(t, err)
	_, secondState, err := c.AddDebit(entry("Groceries", "40"))
	require.NoError(t, err)

	// 第一次的快照不受之後的寫入影響
	assert.Equal(t, "100.00", firstState.BalanceString())
	assert.Equal(t, uint64(1), firstState.Version)
	require.Len(t, firstState.Credits, 1)
	assert.Equal(t, first.ID, firstState.Credits[0].ID)
	assert.Empty(t, firstState.Debits)

	assert.Equal(t, "60.00", secondState.BalanceString())
	assert.Equal(t, uint64(2), secondState.Version)

	// 回傳的清單是複本
	firstState.Credits[0].Description = "changed"
	assert.Equal(t, "Salary", c.CreditList()[0].Description)
}

func TestController_BalanceMatchesListsAfterEveryStep(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewController(&fakeSource{
		credits: []domain.Transaction{entry("Salary", "100")},
		debits:  []domain.Transaction{entry("Groceries", "40")},
	})
	require.NoError(t, c.Sync(context.Background()))

	check := func(step int) {
		want := domain.FormatBalance(domain.DeriveBalance(c.CreditList(), c.DebitList()))
		require.Equal(t, want, c.AccountBalance(), "step %d", step)
	}
	check(0)

	for step := 1; step <= 200; step++ {
		// 三位小數，含負數與需要進位的半分
		amount := decimal.New(rng.Int63n(200001)-100000, -3)
		e := domain.Transaction{Description: fmt.Sprintf("entry %d", step), Amount: amount}

		var err error
		switch rng.Intn(3) {
		case 0:
			_, _, err = c.AddCredit(e)
		case 1:
			_, _, err = c.AddDebit(e)
		default:
			_, err = c.SetCurrentUser(domain.UserUpdate{UserName: fmt.Sprintf("user %d", step)})
		}
		require.NoError(t, err)
		check(step)
	}
}

func TestController_WorkedExampleAndRounding(t *testing.T) {
	c := NewController(&fakeSource{})
	_, _, err := c.AddCredit(entry("Salary", "100"))
	require.NoError(t, err)
	_, _, err = c.AddDebit(entry("Groceries", "40"))
	require.NoError(t, err)
	assert.Equal(t, "60.00", c.AccountBalance())

	_, _, err = c.AddCredit(entry("Refund", "25.50"))
	require.NoError(t, err)
	assert.Equal(t, "85.50", c.AccountBalance())
	assert.Len(t, c.CreditList(), 2)

	other := NewController(&fakeSource{})
	_, _, err = other.AddDebit(entry("Fee", "1.005"))
	require.NoError(t, err)
	assert.Equal(t, "-1.01", other.AccountBalance())
}
