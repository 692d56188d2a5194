// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/nativetranslate/identity/internal/auth"
	"github.com/nativetranslate/identity/internal/observability"
	"github.com/nativetranslate/identity/pkg/errutil"
)

// Handler exposes the auth operations over REST+JSON.
type Handler struct {
	svc     *auth.Service
	resets  *auth.PasswordResetService
	codec   *auth.SessionCodec
	metrics *observability.Metrics
}

// NewHandler creates a Handler. metrics may be nil when the observability
// server is disabled.
func NewHandler(svc *auth.Service, resets *auth.PasswordResetService, codec *auth.SessionCodec, metrics *observability.Metrics) (*Handler, error) {
	if svc == nil {
		return nil, oops.Code("HTTP_HANDLER_INVALID").Errorf("auth service is required")
	}
	if resets == nil {
		return nil, oops.Code("HTTP_HANDLER_INVALID").Errorf("reset service is required")
	}
	if codec == nil {
		return nil, oops.Code("HTTP_HANDLER_INVALID").Errorf("session codec is required")
	}
	return &Handler{svc: svc, resets: resets, codec: codec, metrics: metrics}, nil
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email      string `json:"email" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	InviteCode string `json:"inviteCode" binding:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.svc.Login(c.Request.Context(), c.GetHeader("Authorization"), req.Email, req.Password)
	if err != nil {
		h.countLogin(statusOf(err))
		h.respondError(c, err)
		return
	}
	if result.AlreadyAuthenticated {
		c.JSON(http.StatusOK, messageResponse{Message: "Already logged in"})
		return
	}
	h.countLogin("ok")
	c.JSON(http.StatusOK, tokenResponse{Token: result.Token})
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.svc.Register(c.Request.Context(), req.InviteCode, req.Email, req.Username, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RegistrationsTotal.WithLabelValues(statusOf(err)).Inc()
		}
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.GetHeader("Authorization")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// Validate handles POST /auth/validate.
func (h *Handler) Validate(c *gin.Context) {
	if err := h.svc.Validate(c.Request.Context(), c.GetHeader("Authorization")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Logged in"})
}

// Me handles GET /auth/me, resolving the identity behind the session token.
func (h *Handler) Me(c *gin.Context) {
	identity, err := h.codec.ResolveIdentity(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       identity.ID,
		"username": identity.Username,
		"email":    identity.Email,
		"role":     identity.Role,
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.resets.RequestReset(c.Request.Context(), req.Email); err != nil {
		if h.metrics != nil {
			h.metrics.ResetRequestsTotal.WithLabelValues(statusOf(err)).Inc()
		}
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ResetRequestsTotal.WithLabelValues("ok").Inc()
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Email sent"})
}

// ResetPasswordConfirm handles POST /auth/reset-password-confirm.
func (h *Handler) ResetPasswordConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if _, err := h.resets.Confirm(c.Request.Context(), req.Token, req.Password); err != nil {
		if h.metrics != nil {
			h.metrics.ResetConfirmsTotal.WithLabelValues(statusOf(err)).Inc()
		}
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ResetConfirmsTotal.WithLabelValues("ok").Inc()
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}

func (h *Handler) countLogin(status string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(status).Inc()
	}
}

// respondError maps service errors to HTTP responses. Lookup failures stay
// coarse at this boundary to avoid account and token enumeration.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, body := mapError(err)
	if status == http.StatusInternalServerError {
		errutil.LogError(requestLogger(c), "request failed", err)
	}
	c.JSON(status, body)
}

// mapError translates an error's oops code into a status and response body.
func mapError(err error) (int, errorResponse) {
	var code any
	if oopsErr, ok := oops.AsOops(err); ok {
		code = oopsErr.Code()
	}

	switch code {
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusNotFound, errorResponse{Error: "Invalid credentials"}
	case "AUTH_INVITE_INVALID":
		return http.StatusNotFound, errorResponse{Error: "Invite code not found"}
	case "AUTH_NOT_AUTHENTICATED":
		return http.StatusNotFound, errorResponse{Error: "Not logged in"}
	case "RESET_IDENTITY_NOT_FOUND":
		return http.StatusNotFound, errorResponse{Error: "User not found"}
	case "RESET_TOKEN_INVALID":
		return http.StatusNotFound, errorResponse{Error: "Invalid or expired token"}
	case "AUTH_CONFLICT":
		return http.StatusConflict, errorResponse{Error: "Email or username already taken"}
	case "RESET_DELIVERY_FAILED":
		return http.StatusInternalServerError, errorResponse{Error: "Error while sending email"}
	case "AUTH_INVALID_USERNAME", "AUTH_INVALID_EMAIL", "RESET_PASSWORD_EMPTY", "AUTH_EMPTY_PASSWORD":
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	}

	if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrNotFound) {
		return http.StatusNotFound, errorResponse{Error: "Not found"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
}

// statusOf buckets an error into a metrics label.
func statusOf(err error) string {
	if code, _ := mapError(err); code < http.StatusInternalServerError {
		return "rejected"
	}
	return "error"
}

func requestLogger(c *gin.Context) *slog.Logger {
	requestID, _ := c.Get(RequestIDHeader)
	requestIDStr, _ := requestID.(string)
	return slog.Default().With("request_id", requestIDStr)
}
