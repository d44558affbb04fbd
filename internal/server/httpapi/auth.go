package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/server/sessions"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Token is the setup token; only /api/setup reads it.
	Token string `json:"token"`
}

type sessionResponse struct {
	User      models.PublicUser `json:"user"`
	Token     string            `json:"token,omitempty"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

func (s *Server) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"setupRequired": s.accounts.SetupRequired()})
}

// handleSetup creates an account and logs it in.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Setup(r.Context(), req.Token, req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.startSession(w, r, user, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.startSession(w, r, user, http.StatusOK)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	writeJSON(w, status, sessionResponse{User: user.Public(), Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := tokenFromRequest(r); token != "" {
		s.sessions.Destroy(token)
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{User: userFrom(r.Context()).Public(), ExpiresAt: sess.ExpiresAt})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess sessions.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(s.sessions.Lifetime().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.cookieSecure,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.cookieSecure,
	})
}
