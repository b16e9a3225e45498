package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tracelane/tracelane/internal/auth"
	"github.com/tracelane/tracelane/internal/users"
	"github.com/tracelane/tracelane/pkg/httpx"
)

type credentialsRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
	PinCode   string `json:"pin_code"`
	State     string `json:"state"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "username and password are required")
		return
	}
	u := users.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Mobile:    req.Mobile,
		PinCode:   req.PinCode,
		State:     req.State,
		City:      req.City,
		Country:   req.Country,
	}
	if err := s.users.Create(r.Context(), u, req.Password); err != nil {
		if errors.Is(err, users.ErrExists) {
			httpx.WriteError(w, http.StatusConflict, "USERNAME_TAKEN", err.Error())
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	s.setSession(w, req.Username)
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if err := s.users.Authenticate(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid credentials")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	s.setSession(w, req.Username)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "password is required")
		return
	}
	if err := s.users.SetPassword(r.Context(), actor(r), req.Password); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		s.sessions.Revoke(cookie.Value)
		http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) marketplace(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.List(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if list == nil {
		list = []users.User{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) setSession(w http.ResponseWriter, username string) {
	token := s.sessions.Issue(username)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
