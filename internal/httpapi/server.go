// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

// Package httpapi exposes the authentication services over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the public HTTP front for the auth endpoints.
type Server struct {
	addr   string
	engine *gin.Engine
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds a Server with the standard middleware chain and the
// auth routes registered.
func NewServer(addr string, handler *Handler, logger *slog.Logger) (*Server, error) {
	if handler == nil {
		return nil, oops.Code("HTTP_SERVER_INVALID").Errorf("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(RequestID(), Logger(logger), gin.Recovery())

	group := engine.Group("/auth")
	group.POST("/login", handler.Login)
	group.POST("/register", handler.Register)
	group.POST("/logout", handler.Logout)
	group.POST("/validate", handler.Validate)
	group.POST("/reset-password", handler.ResetPassword)
	group.POST("/reset-password-confirm", handler.ResetPasswordConfirm)
	group.GET("/me", handler.Me)

	return &Server{
		addr:   addr,
		engine: engine,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Engine returns the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins serving in a background goroutine. The returned channel
// receives the terminal error if the listener stops unexpectedly.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- oops.Code("HTTP_SERVER_FAILED").With("addr", s.addr).Wrap(err)
		}
		close(errCh)
	}()
	return errCh
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return oops.Code("HTTP_SERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	s.logger.Info("http server stopped")
	return nil
}
