package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"verigate/internal/payment"
	"verigate/internal/payment/store"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/audit"
)

type stubGateway struct {
	initializeBody json.RawMessage
	verifyBody     json.RawMessage
	err            error
	lastInitialize payment.InitializeRequest
}

func (g *stubGateway) Initialize(ctx context.Context, req payment.InitializeRequest) (json.RawMessage, error) {
	g.lastInitialize = req
	if g.err != nil {
		return nil, g.err
	}
	return g.initializeBody, nil
}

func (g *stubGateway) Verify(ctx context.Context, reference string) (json.RawMessage, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.verifyBody, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Publish(ctx context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAudit) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]audit.Action, 0, len(r.events))
	for _, e := range r.events {
		actions = append(actions, e.Action)
	}
	return actions
}

func newFixture() (*payment.Service, *stubGateway, *store.InMemoryStore, *recordingAudit) {
	gateway := &stubGateway{
		initializeBody: json.RawMessage(`{"status":true,"data":{"reference":"ref-1"}}`),
		verifyBody:     json.RawMessage(`{"status":true,"data":{"status":"success"}}`),
	}
	txs := store.NewInMemory()
	sink := &recordingAudit{}
	svc := payment.NewService(gateway, txs, slog.New(slog.DiscardHandler), payment.WithAudit(sink))
	return svc, gateway, txs, sink
}

func TestInitializeRecordsTransaction(t *testing.T) {
	svc, gateway, txs, sink := newFixture()

	raw, err := svc.Initialize(context.Background(), payment.InitializeRequest{
		Email:    "payer@example.com",
		Amount:   2500,
		Currency: "NGN",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if string(raw) != string(gateway.initializeBody) {
		t.Fatalf("expected raw gateway body, got %s", raw)
	}

	tx, err := txs.Find(context.Background(), gateway.lastInitialize.Reference)
	if err != nil {
		t.Fatalf("find transaction: %v", err)
	}
	if tx.Status != payment.StatusInitialized {
		t.Fatalf("expected status %q, got %q", payment.StatusInitialized, tx.Status)
	}
	if tx.Amount != 2500 || tx.Currency != "NGN" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	actions := sink.actions()
	if len(actions) != 1 || actions[0] != audit.ActionPaymentInitialized {
		t.Fatalf("expected payment_initialized event, got %v", actions)
	}
}

func TestInitializeGeneratesReference(t *testing.T) {
	svc, gateway, _, _ := newFixture()

	if _, err := svc.Initialize(context.Background(), payment.InitializeRequest{
		Email:  "payer@example.com",
		Amount: 100,
	}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if gateway.lastInitialize.Reference == "" {
		t.Fatal("expected a generated reference")
	}
	if gateway.lastInitialize.Currency != "NGN" {
		t.Fatalf("expected NGN default currency, got %q", gateway.lastInitialize.Currency)
	}
}

func TestInitializeValidation(t *testing.T) {
	svc, _, _, _ := newFixture()

	tests := []struct {
		name string
		req  payment.InitializeRequest
	}{
		{"missing email", payment.InitializeRequest{Amount: 100}},
		{"zero amount", payment.InitializeRequest{Email: "payer@example.com"}},
		{"negative amount", payment.InitializeRequest{Email: "payer@example.com", Amount: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Initialize(context.Background(), tt.req)
			if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
				t.Fatalf("expected bad request, got %v", err)
			}
		})
	}
}

func TestInitializeGatewayFailureMarksFailed(t *testing.T) {
	svc, gateway, txs, sink := newFixture()
	gateway.err = errors.New("connection refused")

	_, err := svc.Initialize(context.Background(), payment.InitializeRequest{
		Email:     "payer@example.com",
		Amount:    2500,
		Reference: "ref-x",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	tx, findErr := txs.Find(context.Background(), "ref-x")
	if findErr != nil {
		t.Fatalf("find transaction: %v", findErr)
	}
	if tx.Status != payment.StatusFailed {
		t.Fatalf("expected failed status, got %q", tx.Status)
	}

	actions := sink.actions()
	if len(actions) != 1 || actions[0] != audit.ActionPaymentFailed {
		t.Fatalf("expected payment_failed event, got %v", actions)
	}
}

func TestVerifySuccessMarksVerified(t *testing.T) {
	svc, _, txs, sink := newFixture()

	if _, err := svc.Initialize(context.Background(), payment.InitializeRequest{
		Email:     "payer@example.com",
		Amount:    2500,
		Reference: "ref-1",
	}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.Verify(context.Background(), "ref-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	tx, err := txs.Find(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("find transaction: %v", err)
	}
	if tx.Status != payment.StatusVerified {
		t.Fatalf("expected verified, got %q", tx.Status)
	}

	actions := sink.actions()
	if actions[len(actions)-1] != audit.ActionPaymentVerified {
		t.Fatalf("expected payment_verified last, got %v", actions)
	}
}

func TestVerifyAbandonedPaymentMarksFailed(t *testing.T) {
	svc, gateway, txs, _ := newFixture()
	gateway.verifyBody = json.RawMessage(`{"status":true,"data":{"status":"abandoned"}}`)

	if _, err := svc.Initialize(context.Background(), payment.InitializeRequest{
		Email:     "payer@example.com",
		Amount:    2500,
		Reference: "ref-1",
	}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.Verify(context.Background(), "ref-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	tx, err := txs.Find(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("find transaction: %v", err)
	}
	if tx.Status != payment.StatusFailed {
		t.Fatalf("expected failed, got %q", tx.Status)
	}
}

func TestVerifyUnknownReferenceStillReturnsBody(t *testing.T) {
	// The local transaction record is supplementary; verify passes Paystack's
	// body through even when this node never saw the initialize call.
	svc, gateway, _, _ := newFixture()

	raw, err := svc.Verify(context.Background(), "ref-unknown")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if string(raw) != string(gateway.verifyBody) {
		t.Fatalf("expected gateway body, got %s", raw)
	}
}

func TestHistoryReturnsNewestFirst(t *testing.T) {
	svc, _, _, _ := newFixture()

	for _, ref := range []string{"ref-1", "ref-2", "ref-3"} {
		if _, err := svc.Initialize(context.Background(), payment.InitializeRequest{
			Email:     "payer@example.com",
			Amount:    100,
			Reference: ref,
		}); err != nil {
			t.Fatalf("initialize %s: %v", ref, err)
		}
	}

	history, err := svc.History(context.Background(), 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(history))
	}
}
