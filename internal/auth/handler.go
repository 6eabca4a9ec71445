package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/noticeboard-app/noticeboard/internal/platform/httpx"
	"github.com/noticeboard-app/noticeboard/internal/shared"
	"github.com/noticeboard-app/noticeboard/internal/uploads"
)

// maxUploadBytes caps the multipart form kept in memory during registration.
const maxUploadBytes = 5 << 20

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	uploadStore    *uploads.Store
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, uploadStore *uploads.Store) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		uploadStore:    uploadStore,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/user", h.handleWhoami)
		r.Delete("/logout", h.handleLogout)
	})
}

// RequireSession is the authorization gate: requests without an
// authenticated session are rejected before the protected handler runs.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if !sess.Authenticated() {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type registerRequest struct {
	Login       string `json:"login" validate:"required"`
	Password    string `json:"password" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,numeric"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, avatar, err := h.parseRegisterRequest(r)
	if err != nil {
		// The upload, if any, was stored before the request was rejected.
		if avatar != nil {
			if rmErr := h.uploadStore.Remove(avatar.Path); rmErr != nil {
				h.logger.Warn("discard upload", slog.String("path", avatar.Path), slog.Any("error", rmErr))
			}
		}
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Login:       req.Login,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Avatar:      avatar,
	})
	if err != nil {
		h.logRejection(r, "register", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.Message(w, http.StatusCreated, fmt.Sprintf("User created %s", user.Login))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrBadRequest)
		return
	}

	user, err := h.service.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.logRejection(r, "login", err)
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("session missing"))
		return
	}
	sess.SetUser(shared.UserSnapshot{UserID: user.ID, Login: user.Login})

	httpx.Message(w, http.StatusOK, "Login successful")
}

func (h *Handler) handleWhoami(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, httpx.MessageBody{
		Message: "Yeah I'm logged",
		User:    sess.User(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.sessionManager.Destroy(r.Context(), sess.ID); err != nil {
		h.logger.Warn("destroy session", slog.Any("error", err))
		httpx.RespondError(w, shared.ErrBadRequest)
		return
	}
	sess.MarkDestroyed()
	httpx.Message(w, http.StatusOK, "You have successfully logged out")
}

// parseRegisterRequest accepts either a JSON body or a multipart form with an
// optional avatar file. The avatar is stored before validation runs, so every
// rejection after this point must discard it.
func (h *Handler) parseRegisterRequest(r *http.Request) (registerRequest, *uploads.StoredFile, error) {
	var req registerRequest

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "multipart/") {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return req, nil, shared.ErrBadRequest
		}
		if err := h.validator.Struct(req); err != nil {
			return req, nil, shared.ErrBadRequest
		}
		return req, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, nil, shared.ErrBadRequest
	}
	req.Login = r.PostFormValue("login")
	req.Password = r.PostFormValue("password")
	req.PhoneNumber = r.PostFormValue("phoneNumber")

	var avatar *uploads.StoredFile
	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer func() {
			_ = file.Close()
		}()
		avatar, err = h.uploadStore.Save(header.Filename, file)
		if err != nil {
			return req, nil, err
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return req, nil, shared.ErrBadRequest
	}

	if err := h.validator.Struct(req); err != nil {
		return req, avatar, shared.ErrBadRequest
	}
	return req, avatar, nil
}

func (h *Handler) logRejection(r *http.Request, op string, err error) {
	h.logger.Info("auth request rejected",
		slog.String("op", op),
		slog.String("path", r.URL.Path),
		slog.Any("reason", err),
	)
}
