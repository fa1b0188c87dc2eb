package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid login body", common.ErrorValidation))
		return
	}
	if req.Login == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: login and password are required", common.ErrorValidation))
		return
	}

	pair, err := h.staff.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type registerResponse struct {
	ID string `json:"id"`
}

// register creates a staff account. Only admins may provision staff; the
// first admin comes from the server bootstrap settings.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	if claims.Role != "admin" {
		writeError(w, fmt.Errorf("%w: staff registration requires the admin role", common.ErrorForbidden))
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid register body", common.ErrorValidation))
		return
	}
	if req.Login == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: login and password are required", common.ErrorValidation))
		return
	}
	if req.Role == "" {
		req.Role = "waiter"
	}

	staff, err := h.staff.Register(r.Context(), req.Login, req.Password, req.Name, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: staff.ID})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, fmt.Errorf("%w: refresh_token is required", common.ErrorValidation))
		return
	}

	pair, err := h.staff.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
