package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"CatalogDash/internal/catalogapi"
	"CatalogDash/internal/session"
	"CatalogDash/pkg/kit"
)

const (
	fillAllFields      = "Please fill in all fields."
	loginFailed        = "Unauthorized"
	registrationFailed = "Registration failed."

	// DefaultAvatar is sent for every new account.
	DefaultAvatar = "https://t4.ftcdn.net/jpg/06/43/68/65/360_F_643686558_Efl6HB1ITw98bx1PdAd1wy56QpUTMh47.jpg"
)

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	SessionID string       `json:"session_id"`
	Area      session.Area `json:"area"`
	User      string       `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(loginReq{Email: req.Email, Password: strings.TrimSpace(req.Password)}); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, fillAllFields, nil)
		return
	}

	tokens, err := s.Catalog.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if isClientError(err) {
			kit.WriteError(w, r, http.StatusUnauthorized, catalogapi.MessageOr(err, loginFailed), nil)
			return
		}
		s.writeUpstreamError(w, r, "login", err)
		return
	}

	// the session user keys the selection sets
	user := strings.ToLower(req.Email)
	sess := s.Sessions.Create(user, tokens.AccessToken)
	s.log().Info("logged in", zap.String("user", user))

	kit.WriteJSON(w, http.StatusOK, loginResp{
		SessionID: sess.ID(),
		Area:      sess.Area(),
		User:      sess.User(),
	})
}

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(registerReq{Name: req.Name, Email: req.Email, Password: strings.TrimSpace(req.Password)}); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, fillAllFields, nil)
		return
	}

	u, err := s.Catalog.Register(r.Context(), catalogapi.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   DefaultAvatar,
	})
	if err != nil {
		if isClientError(err) {
			kit.WriteError(w, r, http.StatusBadRequest, catalogapi.MessageOr(err, registrationFailed), nil)
			return
		}
		s.writeUpstreamError(w, r, "register", err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, u)
}

type areaResp struct {
	Area session.Area `json:"area"`
	User string       `json:"user,omitempty"`
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	if _, err := s.Sessions.Logout(r.Context(), sess.ID()); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid session", nil)
			return
		}
		// request cancelled during the delay; the session stays logged in
		return
	}
	if s.Listings != nil {
		s.Listings.CloseOwner(sess.ID())
	}

	kit.WriteJSON(w, http.StatusOK, areaResp{Area: session.AreaAuth})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := kit.BearerToken(r)
	if !ok {
		kit.WriteJSON(w, http.StatusOK, areaResp{Area: session.AreaAuth})
		return
	}

	sess, err := s.Sessions.Get(id)
	if err != nil || sess.Area() != session.AreaDashboard {
		kit.WriteJSON(w, http.StatusOK, areaResp{Area: session.AreaAuth})
		return
	}
	kit.WriteJSON(w, http.StatusOK, areaResp{Area: sess.Area(), User: sess.User()})
}

// isClientError reports a 4xx answer from the store API.
func isClientError(err error) bool {
	var ue *catalogapi.UpstreamError
	return errors.As(err, &ue) || errors.Is(err, catalogapi.ErrNotFound)
}
