package server

import (
	"errors"
	"net/http"

	"github.com/tracelane/tracelane/internal/ledger"
	"github.com/tracelane/tracelane/pkg/httpx"
)

func (s *Server) getChain(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"Chain": s.ledger.Snapshot()})
}

func (s *Server) addTransaction(w http.ResponseWriter, r *http.Request) {
	var req ledger.Transaction
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.From == "" || req.To == "" || req.Amount <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "from, to and a positive amount are required")
		return
	}
	b, err := s.ledger.Submit(ledger.Payload{Kind: ledger.KindTransaction, Transaction: &req})
	if err != nil {
		if errors.Is(err, ledger.ErrChainClosed) {
			httpx.WriteError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", err.Error())
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "LEDGER_ERROR", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

func (s *Server) validateChain(w http.ResponseWriter, r *http.Request) {
	if te := s.ledger.Check(); te != nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"valid":        false,
			"broken_index": te.Index,
			"detail":       te.Error(),
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"valid": true})
}
