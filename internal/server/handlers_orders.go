package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tracelane/tracelane/internal/ledger"
	"github.com/tracelane/tracelane/internal/orders"
	"github.com/tracelane/tracelane/pkg/httpx"
)

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.registry.Create(actor(r))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Status == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required")
		return
	}
	if err := s.registry.UpdateStatus(chi.URLParam(r, "order_id"), actor(r), req.Status); err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actor string `json:"Actor"`
		Role  string `json:"Role"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Actor == "" || req.Role == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Actor and Role are required")
		return
	}
	if err := s.registry.AddRole(chi.URLParam(r, "order_id"), actor(r), req.Actor, orders.Role(req.Role)); err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) inviteWatcher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actor string `json:"Actor"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Actor == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Actor is required")
		return
	}
	if err := s.registry.InviteWatcher(chi.URLParam(r, "order_id"), actor(r), req.Actor); err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addAddon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Details string `json:"Details"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Details == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Details is required")
		return
	}
	if err := s.registry.AddAddon(chi.URLParam(r, "order_id"), actor(r), req.Details); err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) orderEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.registry.EventsFor(chi.URLParam(r, "order_id"))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if events == nil {
		events = []orders.Event{}
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, orders.ErrUnauthorized):
		httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, orders.ErrUnknownRole):
		httpx.WriteError(w, http.StatusBadRequest, "UNKNOWN_ROLE", err.Error())
	case errors.Is(err, ledger.ErrChainClosed):
		httpx.WriteError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "LEDGER_ERROR", err.Error())
	}
}
