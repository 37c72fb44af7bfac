package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/chats"
	"github.com/pedeai/pedeai/internal/config"
	"github.com/pedeai/pedeai/internal/gateway"
	"github.com/pedeai/pedeai/internal/health"
	"github.com/pedeai/pedeai/internal/orders"
	"github.com/pedeai/pedeai/internal/receipt"
	"github.com/pedeai/pedeai/internal/roster"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

type fakeGateway struct {
	chatsJSON    string
	messagesJSON string
	err          error
}

func (g *fakeGateway) FindChats(ctx context.Context) ([]gateway.RawChat, error) {
	if g.err != nil {
		return nil, g.err
	}
	var out []gateway.RawChat
	if err := json.Unmarshal([]byte(g.chatsJSON), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *fakeGateway) FindMessages(ctx context.Context, chatID string) ([]gateway.RawMessage, error) {
	if g.err != nil {
		return nil, g.err
	}
	var out []gateway.RawMessage
	if err := json.Unmarshal([]byte(g.messagesJSON), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type testEnv struct {
	server  *httptest.Server
	db      *store.DB
	gw      *fakeGateway
	machine *health.Machine
}

func testEnvSetup(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zap.NewNop()
	b := bus.New()
	gw := &fakeGateway{chatsJSON: "[]", messagesJSON: "[]"}

	rosterSvc := roster.NewService(db, b, "rest-1", logger)
	orderSvc := orders.NewService(db, b, "rest-1", logger)
	chatSvc := chats.NewService(gw, rosterSvc, b, logger)
	spooler := receipt.NewSpooler(db, b, config.Printer{SpoolDir: filepath.Join(t.TempDir(), "spool")}, "Cantina Teste", logger)
	machine := health.NewMachine(b)

	h := NewHandler(chatSvc, rosterSvc, orderSvc, spooler, machine, logger)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, db: db, gw: gw, machine: machine}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp, decoded
}

func TestCustomerEndpoints(t *testing.T) {
	env := testEnvSetup(t)

	resp, created := env.do(t, http.MethodPost, "/v1/customers", map[string]any{
		"name": "Ana", "phone": "+55 (11) 91234-5678", "currentTable": "5",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created customer has no id")
	}

	resp, listed := env.do(t, http.MethodGet, "/v1/customers", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	customers, _ := listed["customers"].([]any)
	if len(customers) != 1 {
		t.Fatalf("listed %d customers, want 1", len(customers))
	}

	resp, updated := env.do(t, http.MethodPut, "/v1/customers/"+id, map[string]any{
		"name": "Ana Maria", "phone": "5511912345678",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	if updated["name"] != "Ana Maria" {
		t.Fatalf("updated name = %v", updated["name"])
	}

	resp, _ = env.do(t, http.MethodPut, "/v1/customers/nope", map[string]any{"name": "x", "phone": "1"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update unknown status = %d, want 404", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodDelete, "/v1/customers/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, listed = env.do(t, http.MethodGet, "/v1/customers", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if customers, _ := listed["customers"].([]any); len(customers) != 0 {
		t.Fatalf("listed %d customers after delete, want 0", len(customers))
	}
}

func TestCustomerValidation(t *testing.T) {
	env := testEnvSetup(t)

	resp, body := env.do(t, http.MethodPost, "/v1/customers", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty customer status = %d, want 400", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Fatal("expected error message")
	}
}

func TestOrderEndpoints(t *testing.T) {
	env := testEnvSetup(t)

	resp, _ := env.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"table": "7", "items": []any{}, "total": 0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty order status = %d, want 400", resp.StatusCode)
	}

	resp, created := env.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"table": "7",
		"items": []map[string]any{{"name": "Coca-Cola", "price": 5, "qty": 2}},
		"total": 10,
		"note":  "sem gelo",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order status = %d", resp.StatusCode)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created order has no id")
	}
	if created["status"] != "open" {
		t.Fatalf("new order status = %v, want open", created["status"])
	}

	resp, _ = env.do(t, http.MethodPatch, "/v1/orders/"+id, map[string]any{"status": "preparing"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}

	resp, got := env.do(t, http.MethodGet, "/v1/orders/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got["status"] != "preparing" {
		t.Fatalf("order status = %v, want preparing", got["status"])
	}

	resp, _ = env.do(t, http.MethodPatch, "/v1/orders/"+id, map[string]any{"status": "sideways"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad status patch = %d, want 400", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/v1/orders/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown status = %d, want 404", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodDelete, "/v1/orders/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
}

func TestPrintOrderQueuesJob(t *testing.T) {
	env := testEnvSetup(t)

	_, created := env.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"table": "3",
		"items": []map[string]any{{"name": "Pastel", "price": 8.5, "qty": 1}},
		"total": 8.5,
	})
	id := created["id"].(string)

	resp, body := env.do(t, http.MethodPost, "/v1/orders/"+id+"/print", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("print status = %d, want 202", resp.StatusCode)
	}
	jobID, _ := body["jobId"].(string)
	if jobID == "" {
		t.Fatal("print response has no jobId")
	}

	pending, err := env.db.PendingPrintJobs()
	if err != nil {
		t.Fatalf("pending jobs: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != jobID {
		t.Fatalf("pending jobs = %+v, want one with id %s", pending, jobID)
	}

	resp, _ = env.do(t, http.MethodPost, "/v1/orders/nope/print", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("print unknown status = %d, want 404", resp.StatusCode)
	}
}

func TestConversationsEndpoint(t *testing.T) {
	env := testEnvSetup(t)

	env.do(t, http.MethodPost, "/v1/customers", map[string]any{
		"name": "Ana", "phone": "11912345678",
	})
	env.gw.chatsJSON = `[
		{"wa_chatid": "5511912345678@s.whatsapp.net", "wa_name": "ana wpp",
		 "wa_lastMessageTextVote": "chegando", "wa_lastMsgTimestamp": 1700000100, "wa_unreadCount": 2},
		{"wa_chatid": "5599000000@s.whatsapp.net", "wa_name": "stranger",
		 "wa_lastMsgTimestamp": 1700000200}
	]`

	resp, body := env.do(t, http.MethodGet, "/v1/conversations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("conversations status = %d", resp.StatusCode)
	}
	conversations, _ := body["conversations"].([]any)
	if len(conversations) != 1 {
		t.Fatalf("got %d conversations, want 1 (allow-list filtered)", len(conversations))
	}
	first := conversations[0].(map[string]any)
	if first["name"] != "Ana" {
		t.Fatalf("conversation name = %v, want roster name Ana", first["name"])
	}
	if env.machine.Current() != health.Ready {
		t.Fatalf("health = %s after good refresh, want READY", env.machine.Current())
	}
}

func TestConversationsDegradeToEmpty(t *testing.T) {
	env := testEnvSetup(t)
	env.gw.err = errors.New("gateway down")

	resp, body := env.do(t, http.MethodGet, "/v1/conversations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("conversations status = %d, want 200 on gateway failure", resp.StatusCode)
	}
	conversations, ok := body["conversations"].([]any)
	if !ok || len(conversations) != 0 {
		t.Fatalf("conversations = %v, want empty list", body["conversations"])
	}
	if env.machine.Current() != health.Degraded {
		t.Fatalf("health = %s after failure, want DEGRADED", env.machine.Current())
	}

	resp, body = env.do(t, http.MethodGet, "/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if body["gateway"] != string(health.Degraded) {
		t.Fatalf("health gateway = %v, want %s", body["gateway"], health.Degraded)
	}
	if msg, _ := body["lastError"].(string); msg == "" {
		t.Fatal("expected lastError to be populated")
	}
}

func TestMessagesEndpoint(t *testing.T) {
	env := testEnvSetup(t)
	env.gw.messagesJSON = `[
		{"id": "m1", "chatId": "5511912345678@s.whatsapp.net", "content": "oi", "timestamp": 1700000000},
		{"id": "m2", "chatId": "other@s.whatsapp.net", "content": "nope", "timestamp": 1700000001}
	]`

	resp, body := env.do(t, http.MethodGet, "/v1/conversations/5511912345678@s.whatsapp.net/messages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("messages status = %d", resp.StatusCode)
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	msg := messages[0].(map[string]any)
	if msg["content"] != "oi" {
		t.Fatalf("message content = %v", msg["content"])
	}
	if fmt.Sprintf("%.0f", msg["timestamp"]) != "1700000000000" {
		t.Fatalf("message timestamp = %v, want milliseconds", msg["timestamp"])
	}
}

func TestInvalidJSONBody(t *testing.T) {
	env := testEnvSetup(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/v1/customers", bytes.NewBufferString("{nope"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid body status = %d, want 400", resp.StatusCode)
	}
}
