package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pedeai/pedeai/internal/chats"
	"github.com/pedeai/pedeai/internal/health"
	"github.com/pedeai/pedeai/internal/orders"
	"github.com/pedeai/pedeai/internal/receipt"
	"github.com/pedeai/pedeai/internal/roster"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler serves the dashboard's REST API.
type Handler struct {
	chats   *chats.Service
	roster  *roster.Service
	orders  *orders.Service
	spooler *receipt.Spooler
	health  *health.Machine
	logger  *zap.Logger
}

// NewHandler creates the API handler over the daemon services.
func NewHandler(c *chats.Service, r *roster.Service, o *orders.Service, sp *receipt.Spooler, h *health.Machine, logger *zap.Logger) *Handler {
	return &Handler{chats: c, roster: r, orders: o, spooler: sp, health: h, logger: logger}
}

// Router builds the versioned route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	v1.HandleFunc("/conversations/{id}/messages", h.listMessages).Methods(http.MethodGet)

	v1.HandleFunc("/customers", h.listCustomers).Methods(http.MethodGet)
	v1.HandleFunc("/customers", h.addCustomer).Methods(http.MethodPost)
	v1.HandleFunc("/customers/{id}", h.updateCustomer).Methods(http.MethodPut)
	v1.HandleFunc("/customers/{id}", h.removeCustomer).Methods(http.MethodDelete)

	v1.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	v1.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	v1.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	v1.HandleFunc("/orders/{id}", h.updateOrderStatus).Methods(http.MethodPatch)
	v1.HandleFunc("/orders/{id}", h.deleteOrder).Methods(http.MethodDelete)
	v1.HandleFunc("/orders/{id}/print", h.printOrder).Methods(http.MethodPost)

	v1.HandleFunc("/health", h.getHealth).Methods(http.MethodGet)

	return r
}

// listConversations refreshes and returns the unified conversation list.
// A gateway failure degrades to an empty list; the health endpoint carries
// the failure detail.
func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chats.Refresh(r.Context())
	h.health.Observe(err)
	if err != nil {
		conversations = []chats.Conversation{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

// listMessages returns one conversation's normalized history; a gateway
// failure degrades to an empty list.
func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	messages, err := h.chats.Messages(r.Context(), chatID)
	h.health.Observe(err)
	if err != nil {
		messages = []chats.Message{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.roster.List(r.Context())
	if err != nil {
		h.internalError(w, "list customers", err)
		return
	}
	if customers == nil {
		customers = []store.Customer{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (h *Handler) addCustomer(w http.ResponseWriter, r *http.Request) {
	var in roster.Input
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.roster.Add(r.Context(), in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var in roster.Input
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.roster.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) removeCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		h.internalError(w, "remove customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.List(r.Context())
	if err != nil {
		h.internalError(w, "list orders", err)
		return
	}
	if out == nil {
		out = []store.Order{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.Input
	if !decodeBody(w, r, &in) {
		return
	}
	o, err := h.orders.Create(r.Context(), in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		h.internalError(w, "get order", err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if err := h.orders.SetStatus(r.Context(), mux.Vars(r)["id"], in.Status); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		h.internalError(w, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// printOrder enqueues a receipt. 202 means queued; the print itself is
// fire-and-forget.
func (h *Handler) printOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		h.internalError(w, "load order for print", err)
		return
	}
	jobID, err := h.spooler.Print(o)
	if err != nil {
		h.internalError(w, "queue receipt", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"gateway":   h.health.Current(),
		"lastError": h.health.LastError(),
		"since":     h.health.LastChange().UnixMilli(),
	})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	respondError(w, http.StatusInternalServerError, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
