package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"CatalogDash/pkg/kit"
)

type Server struct {
	Log   *zap.Logger
	Store UserStore
	JWT   *TokenMaker
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// apiError is the store API error envelope. Message is either a string or
// a list of validation messages.
type apiError struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error,omitempty"`
}

func writeAPIError(w http.ResponseWriter, status int, msg any) {
	kit.WriteJSON(w, status, apiError{StatusCode: status, Message: msg, Error: http.StatusText(status)})
}

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,alphanum"`
	Avatar   string `json:"avatar" validate:"required,url"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, []string{"invalid json body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if err := validate.Struct(req); err != nil {
		writeAPIError(w, http.StatusBadRequest, validationMessages(err))
		return
	}

	u, err := s.Store.Create(r.Context(), NewUser(req))
	if errors.Is(err, ErrEmailExists) {
		writeAPIError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		kit.OrNop(s.Log).Error("create user failed", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "server error")
		return
	}

	kit.WriteJSON(w, http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, []string{"invalid json body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeAPIError(w, http.StatusBadRequest, validationMessages(err))
		return
	}

	u, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		kit.OrNop(s.Log).Error("verify user failed", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "server error")
		return
	}

	s.issue(w, u)
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, []string{"invalid json body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeAPIError(w, http.StatusBadRequest, validationMessages(err))
		return
	}

	u, ok := s.userFromToken(w, r, req.RefreshToken, kindRefresh)
	if !ok {
		return
	}
	s.issue(w, u)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	tok, ok := kit.BearerToken(r)
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, ok := s.userFromToken(w, r, tok, kindAccess)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

func (s *Server) issue(w http.ResponseWriter, u User) {
	pair, err := s.JWT.Pair(u)
	if err != nil {
		kit.OrNop(s.Log).Error("token issue", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "server error")
		return
	}
	kit.WriteJSON(w, http.StatusCreated, pair)
}

func (s *Server) userFromToken(w http.ResponseWriter, r *http.Request, tok, kind string) (User, bool) {
	claims, err := s.JWT.Parse(tok, kind)
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
		return User{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
		return User{}, false
	}

	u, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		kit.OrNop(s.Log).Error("load user failed", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "server error")
		return User{}, false
	}
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
		return User{}, false
	}
	return u, true
}

var fieldMessages = map[string]string{
	"required": "%s should not be empty",
	"email":    "%s must be an email",
	"min":      "%s must be longer than or equal to %s characters",
	"alphanum": "%s must contain only letters and numbers",
	"url":      "%s must be a URL address",
}

// validationMessages renders validator errors as one message per field.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		format, ok := fieldMessages[fe.Tag()]
		if !ok {
			out = append(out, field+" is invalid")
			continue
		}
		if strings.Count(format, "%s") == 2 {
			out = append(out, fmt.Sprintf(format, field, fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf(format, field))
	}
	return out
}
