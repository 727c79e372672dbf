package app_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"otx2crits/internal/app"
	"otx2crits/internal/otx"
	"otx2crits/internal/store"
	"otx2crits/internal/vocab"
	"otx2crits/pkg/util"
	"go.uber.org/zap"
)

// fakeStore 是内存版情报库，记录全部调用供断言。
type fakeStore struct {
	mu sync.Mutex

	nextID           int
	eventTickets     map[store.EventID]string
	indicators       map[string]store.IndicatorID
	edges            map[string]bool
	createEventCalls int
	findCalls        int

	failCreateEvent    error
	failCreateEventFor string
	failTicketCheck    error
	failLinkFor        store.IndicatorID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		eventTickets: make(map[store.EventID]string),
		indicators:   make(map[string]store.IndicatorID),
		edges:        make(map[string]bool),
	}
}

func (f *fakeStore) CreateEvent(_ context.Context, ev store.Event) (store.EventID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createEventCalls++
	if f.failCreateEvent != nil {
		return "", f.failCreateEvent
	}
	if f.failCreateEventFor != "" && ev.Ticket.Number == f.failCreateEventFor {
		return "", fmt.Errorf("%w: event refused", store.ErrRejected)
	}
	f.nextID++
	id := store.EventID("event-" + strconv.Itoa(f.nextID))
	f.eventTickets[id] = ev.Ticket.Number
	return id, nil
}

func (f *fakeStore) FindOrCreateIndicator(_ context.Context, typ, value string) (store.IndicatorID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	key := util.PairKey(typ, value)
	if id, ok := f.indicators[key]; ok {
		return id, false, nil
	}
	f.nextID++
	id := store.IndicatorID("indicator-" + strconv.Itoa(f.nextID))
	f.indicators[key] = id
	return id, true, nil
}

func (f *fakeStore) LinkEventToIndicator(_ context.Context, eventID store.EventID, indicatorID store.IndicatorID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLinkFor != "" && indicatorID == f.failLinkFor {
		return fmt.Errorf("%w: link refused", store.ErrRejected)
	}
	f.edges[string(eventID)+"->"+string(indicatorID)] = true
	return nil
}

func (f *fakeStore) TicketExists(_ context.Context, collectionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTicketCheck != nil {
		return false, f.failTicketCheck
	}
	for _, ticket := range f.eventTickets {
		if ticket == collectionID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) edgeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edges)
}

func newImporter(t *testing.T, st store.Client) *app.Importer {
	t.Helper()
	tr, err := vocab.NewTranslator(vocab.DefaultTable())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	return &app.Importer{Store: st, Translator: tr, Logger: zap.NewNop()}
}

func TestImportCoalescesEquivalentSpellings(t *testing.T) {
	st := newFakeStore()
	im := newImporter(t, st)

	// 三种拼写归一化后是同一个 (Domain, example.com)。
	pulse := otx.Pulse{
		ID:   "p-dup",
		Name: "dup pulse",
		Indicators: []otx.RawIndicator{
			{Type: "hostname", Value: "EXAMPLE.com"},
			{Type: "domain", Value: "example.com"},
			{Type: "domain", Value: " example.com "},
		},
	}

	result, err := im.Import(context.Background(), pulse)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.IndicatorsCreated != 1 {
		t.Fatalf("expected 1 indicator created, got %d", result.IndicatorsCreated)
	}
	if result.EdgesCreated != 1 {
		t.Fatalf("expected 1 edge, got %d", result.EdgesCreated)
	}
	if got := st.edgeCount(); got != 1 {
		t.Fatalf("store holds %d edges, expected 1", got)
	}
	if len(st.indicators) != 1 {
		t.Fatalf("store holds %d indicators, expected 1", len(st.indicators))
	}
}

func TestImportPartialSuccess(t *testing.T) {
	st := newFakeStore()
	im := newImporter(t, st)

	pulse := otx.Pulse{
		ID:   "p-partial",
		Name: "partial pulse",
		Indicators: []otx.RawIndicator{
			{Type: "IPv4", Value: "1.1.1.1"},
			{Type: "IPv4", Value: "2.2.2.2"},
			{Type: "FileHash-MD5", Value: "d41d8cd98f00b204e9800998ecf8427e"},
			{Type: "bogus-type", Value: "x"},
			{Type: "Yara", Value: "rule something"},
		},
	}

	result, err := im.Import(context.Background(), pulse)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.IndicatorsCreated != 3 {
		t.Fatalf("expected 3 created, got %d", result.IndicatorsCreated)
	}
	if result.IndicatorsSkipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", result.IndicatorsSkipped)
	}
	if result.EdgesCreated != 3 {
		t.Fatalf("expected 3 edges, got %d", result.EdgesCreated)
	}
	if len(result.SkippedTypes) != 2 {
		t.Fatalf("expected 2 skipped types, got %v", result.SkippedTypes)
	}
}

func TestImportAbortsWhenEventCreationFails(t *testing.T) {
	st := newFakeStore()
	st.failCreateEvent = fmt.Errorf("%w: validation failed", store.ErrRejected)
	im := newImporter(t, st)

	pulse := otx.Pulse{
		ID:         "p-fail",
		Name:       "bad pulse",
		Indicators: []otx.RawIndicator{{Type: "IPv4", Value: "1.1.1.1"}},
	}

	_, err := im.Import(context.Background(), pulse)
	if err == nil {
		t.Fatalf("expected error when event creation fails")
	}
	if !errors.Is(err, store.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if st.findCalls != 0 {
		t.Fatalf("no indicator work may happen after event failure, saw %d calls", st.findCalls)
	}
}

func TestImportReusesExistingIndicator(t *testing.T) {
	st := newFakeStore()
	st.indicators[util.PairKey("IPv4 Address", "1.1.1.1")] = "indicator-preexisting"
	im := newImporter(t, st)

	pulse := otx.Pulse{
		ID:         "p-reuse",
		Name:       "reuse pulse",
		Indicators: []otx.RawIndicator{{Type: "IPv4", Value: "1.1.1.1"}},
	}

	result, err := im.Import(context.Background(), pulse)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.IndicatorsCreated != 0 || result.IndicatorsReused != 1 {
		t.Fatalf("expected reuse, got created=%d reused=%d", result.IndicatorsCreated, result.IndicatorsReused)
	}
	if result.EdgesCreated != 1 {
		t.Fatalf("expected 1 edge, got %d", result.EdgesCreated)
	}
}

func TestImportContinuesWhenLinkFails(t *testing.T) {
	st := newFakeStore()
	im := newImporter(t, st)

	// 先占住 id 序号，让第一个指标的 link 失败。
	st.indicators[util.PairKey("IPv4 Address", "1.1.1.1")] = "indicator-bad"
	st.failLinkFor = "indicator-bad"

	pulse := otx.Pulse{
		ID:   "p-link",
		Name: "link pulse",
		Indicators: []otx.RawIndicator{
			{Type: "IPv4", Value: "1.1.1.1"},
			{Type: "IPv4", Value: "2.2.2.2"},
		},
	}

	result, err := im.Import(context.Background(), pulse)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.EdgesCreated != 1 {
		t.Fatalf("expected 1 edge after one link failure, got %d", result.EdgesCreated)
	}
}
