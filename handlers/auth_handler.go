package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/footballinvestment/lfa-legacy-go/services"
)

type AuthHandler struct {
	authService  services.AuthService
	emailService *services.EmailService
	logger       *slog.Logger
}

func NewAuthHandler(authService services.AuthService, emailService *services.EmailService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
		logger:       logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if input.Email == "" || input.Password == "" || input.FirstName == "" || input.Nickname == "" {
		badRequestResponse(w, errors.New("first name, nickname, email, and password are required"))
		return
	}

	user, confirmationToken, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	if h.emailService != nil {
		go func() {
			if err := h.emailService.SendWelcomeEmail(user.Email, user.Nickname, confirmationToken); err != nil {
				h.logger.Error("failed to send welcome email",
					slog.Int("user_id", user.ID),
					slog.Any("error", err))
			}
		}()
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, errors.New("email and password are required"))
		return
	}

	user, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		badRequestResponse(w, errors.New("token query parameter is required"))
		return
	}

	if err := h.authService.ConfirmEmail(r.Context(), token); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "email confirmed"})
}
