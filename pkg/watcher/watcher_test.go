package watcher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eczanelab/pharmapos/pkg/alerts"
	"github.com/eczanelab/pharmapos/pkg/model"
	"github.com/eczanelab/pharmapos/pkg/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	mu       sync.Mutex
	drugs    []model.Drug
	listErr  error
	orderErr map[int64]error
	orders   []model.OrderRequest
}

func (f *fakeInventory) ListDrugs(_ context.Context) ([]model.Drug, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.drugs, nil
}

func (f *fakeInventory) OrderStock(_ context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.orderErr[req.DrugID]; err != nil {
		return nil, err
	}
	f.orders = append(f.orders, req)
	return &model.OrderResult{NewStock: req.Quantity}, nil
}

func (f *fakeInventory) recordedOrders() []model.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.OrderRequest, len(f.orders))
	copy(out, f.orders)
	return out
}

type fakeNotifier struct {
	mu    sync.Mutex
	name  string
	err   error
	sent  []alerts.Notification
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(_ context.Context, n alerts.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeSink struct {
	mu     sync.Mutex
	alerts []model.StoredAlert
}

func (f *fakeSink) CreateAlert(_ context.Context, a *model.StoredAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, *a)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDrugs() []model.Drug {
	return []model.Drug{
		{ID: 1, Name: "Parol", StockQuantity: 100, LowStockThreshold: 10},
		{ID: 2, Name: "Majezik", StockQuantity: 8, LowStockThreshold: 10},
		{ID: 3, Name: "Aspirin", StockQuantity: 3, LowStockThreshold: 10},
	}
}

func TestCheckStockLevels_PartitionsBatches(t *testing.T) {
	inv := &fakeInventory{drugs: testDrugs()}
	svc := watcher.New(inv, nil, nil, watcher.Settings{Demo: true}, testLogger())

	result, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Critical, 1)
	assert.Equal(t, "Aspirin", result.Critical[0].Name)
	require.Len(t, result.Low, 1)
	assert.Equal(t, "Majezik", result.Low[0].Name)
}

func TestCheckStockLevels_DemoModeSkipsDispatch(t *testing.T) {
	inv := &fakeInventory{drugs: testDrugs()}
	notifier := &fakeNotifier{name: "email"}
	svc := watcher.New(inv, []alerts.Notifier{notifier}, nil,
		watcher.Settings{Demo: true, AutoOrderEnabled: true}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	// No network activity of any kind in demo mode.
	assert.Zero(t, notifier.sentCount())
	assert.Empty(t, inv.recordedOrders())
	// The ledger still records both batches.
	assert.Len(t, svc.History(), 2)
}

func TestCheckStockLevels_DispatchesPerBatch(t *testing.T) {
	inv := &fakeInventory{drugs: testDrugs()}
	notifier := &fakeNotifier{name: "email"}
	svc := watcher.New(inv, []alerts.Notifier{notifier}, nil, watcher.Settings{}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, notifier.sentCount())
	assert.Equal(t, alerts.SeverityCritical, notifier.sent[0].Kind)
	assert.Equal(t, alerts.SeverityLow, notifier.sent[1].Kind)
}

func TestCheckStockLevels_NotifierFailureIsIsolated(t *testing.T) {
	inv := &fakeInventory{drugs: testDrugs()}
	failing := &fakeNotifier{name: "email", err: errors.New("smtp down")}
	working := &fakeNotifier{name: "sms"}
	svc := watcher.New(inv, []alerts.Notifier{failing, working}, nil, watcher.Settings{}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	// The second channel and the ledger are unaffected.
	assert.Equal(t, 2, working.sentCount())
	assert.Len(t, svc.History(), 2)
}

func TestAutoOrder_UrgentDoublesQuantity(t *testing.T) {
	inv := &fakeInventory{drugs: []model.Drug{
		{ID: 3, Name: "Aspirin", StockQuantity: 3, LowStockThreshold: 10},
	}}
	svc := watcher.New(inv, nil, nil,
		watcher.Settings{AutoOrderEnabled: true, AutoOrderQuantity: 50}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	orders := inv.recordedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, 100, orders[0].Quantity)
	assert.True(t, orders[0].Urgent)
	assert.True(t, orders[0].AutoOrder)
}

func TestAutoOrder_LowBatchUsesBaseQuantity(t *testing.T) {
	inv := &fakeInventory{drugs: []model.Drug{
		{ID: 2, Name: "Majezik", StockQuantity: 8, LowStockThreshold: 10},
	}}
	svc := watcher.New(inv, nil, nil,
		watcher.Settings{AutoOrderEnabled: true, AutoOrderQuantity: 50}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	orders := inv.recordedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, 50, orders[0].Quantity)
	assert.False(t, orders[0].Urgent)
}

func TestAutoOrder_PerDrugFailureContinues(t *testing.T) {
	inv := &fakeInventory{
		drugs: []model.Drug{
			{ID: 1, Name: "A", StockQuantity: 2, LowStockThreshold: 10},
			{ID: 2, Name: "B", StockQuantity: 3, LowStockThreshold: 10},
			{ID: 3, Name: "C", StockQuantity: 4, LowStockThreshold: 10},
		},
		orderErr: map[int64]error{2: errors.New("api down")},
	}
	svc := watcher.New(inv, nil, nil,
		watcher.Settings{AutoOrderEnabled: true, AutoOrderQuantity: 50}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	orders := inv.recordedOrders()
	require.Len(t, orders, 2)
	assert.EqualValues(t, 1, orders[0].DrugID)
	assert.EqualValues(t, 3, orders[1].DrugID)
}

func TestAutoOrder_DisabledByDefault(t *testing.T) {
	inv := &fakeInventory{drugs: testDrugs()}
	svc := watcher.New(inv, nil, nil, watcher.Settings{}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, inv.recordedOrders())
}

func TestCheckStockLevels_UpstreamFailureYieldsEmptyResult(t *testing.T) {
	inv := &fakeInventory{listErr: errors.New("connection refused")}
	svc := watcher.New(inv, nil, nil, watcher.Settings{}, testLogger())

	result, err := svc.CheckStockLevels(context.Background())
	assert.Error(t, err)
	assert.Empty(t, result.Critical)
	assert.Empty(t, result.Low)
	assert.Empty(t, svc.History())
}

func TestCheckStockLevels_PersistsToSink(t *testing.T) {
	inv := &fakeInventory{drugs: testDrugs()}
	sink := &fakeSink{}
	svc := watcher.New(inv, nil, sink, watcher.Settings{Demo: true}, testLogger())

	_, err := svc.CheckStockLevels(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.alerts, 2)
	assert.Equal(t, model.AlertCriticalStock, sink.alerts[0].Type)
	assert.Contains(t, sink.alerts[0].Message, "Aspirin kritik stokta")
	assert.Equal(t, model.AlertLowStock, sink.alerts[1].Type)
	assert.Contains(t, sink.alerts[1].Message, "Majezik düşük stokta")
}

type flakyInventory struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyInventory) ListDrugs(_ context.Context) ([]model.Drug, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == 1 {
		panic("transient catalog fault")
	}
	return nil, nil
}

func (f *flakyInventory) OrderStock(_ context.Context, _ model.OrderRequest) (*model.OrderResult, error) {
	return nil, errors.New("not used")
}

func (f *flakyInventory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStart_SurvivesPanicAndIsIdempotent(t *testing.T) {
	inv := &flakyInventory{}
	svc := watcher.New(inv, nil, nil,
		watcher.Settings{Demo: true, CheckInterval: 100 * time.Millisecond}, testLogger())
	defer svc.Stop()

	svc.Start()
	// A second Start must not register a second schedule.
	svc.Start()

	// The first cycle panics; later ticks still fire.
	require.Eventually(t, func() bool {
		return inv.callCount() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	// The tick rate matches one schedule, not two. A 450ms window holds
	// at most ~5 ticks at 100ms; a doubled schedule would hold ~9.
	before := inv.callCount()
	time.Sleep(450 * time.Millisecond)
	delta := inv.callCount() - before
	assert.GreaterOrEqual(t, delta, 2)
	assert.LessOrEqual(t, delta, 6)
}

func TestNotifySale_DebouncesIntoOneCycle(t *testing.T) {
	inv := &fakeInventory{drugs: []model.Drug{
		{ID: 3, Name: "Aspirin", StockQuantity: 3, LowStockThreshold: 10},
	}}
	svc := watcher.New(inv, nil, nil,
		watcher.Settings{Demo: true, SaleDebounce: 20 * time.Millisecond}, testLogger())
	defer svc.Stop()

	for i := 0; i < 5; i++ {
		svc.NotifySale()
	}

	assert.Eventually(t, func() bool {
		return len(svc.History()) == 1
	}, time.Second, 10*time.Millisecond)
}
