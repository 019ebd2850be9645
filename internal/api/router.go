package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "patvault/internal/api/context"
	"patvault/internal/api/handlers"
	"patvault/internal/api/middleware"
	"patvault/internal/engine/scopes"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	TokenHandler     *handlers.TokenHandler
	UserHandler      *handlers.UserHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	FCSHandler       *handlers.FCSHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	PATMiddleware    *middleware.PATMiddleware
	RateLimiter      *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Health))

	// Authentication routes
	router.POST("/api/v1/auth/register", wrap(deps.AuthHandler.Register))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))

	// Middleware references
	authMid := deps.AuthMiddleware
	patMid := deps.PATMiddleware
	limiter := deps.RateLimiter

	// Token management. These routes require a session JWT, never a
	// PAT, so a leaked token cannot mint or reconfigure tokens.
	router.POST("/api/v1/tokens",
		chain(deps.TokenHandler.Create, authMid.Handle))
	router.GET("/api/v1/tokens",
		chain(deps.TokenHandler.List, authMid.Handle))
	router.GET("/api/v1/tokens/:token_id",
		chain(deps.TokenHandler.Get, authMid.Handle))
	router.DELETE("/api/v1/tokens/:token_id",
		chain(deps.TokenHandler.Revoke, authMid.Handle))
	router.POST("/api/v1/tokens/:token_id/regenerate",
		chain(deps.TokenHandler.Regenerate, authMid.Handle))
	router.PUT("/api/v1/tokens/:token_id/allowed-ips",
		chain(deps.TokenHandler.UpdateAllowedIPs, authMid.Handle))
	router.GET("/api/v1/tokens/:token_id/logs",
		chain(deps.TokenHandler.Logs, authMid.Handle))

	// PAT-protected resource routes. The rate limiter runs first so
	// rejected requests never touch the credential pipeline.
	router.GET("/api/v1/users/me",
		chain(deps.UserHandler.Me, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "users", Action: "read"})))
	router.PUT("/api/v1/users/me",
		chain(deps.UserHandler.UpdateMe, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "users", Action: "write"})))

	router.GET("/api/v1/workspaces",
		chain(deps.WorkspaceHandler.List, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "workspaces", Action: "read"})))
	router.POST("/api/v1/workspaces",
		chain(deps.WorkspaceHandler.Create, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "workspaces", Action: "write"})))
	router.DELETE("/api/v1/workspaces/:workspace_id",
		chain(deps.WorkspaceHandler.Delete, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "workspaces", Action: "delete"})))
	router.PUT("/api/v1/workspaces/:workspace_id/settings",
		chain(deps.WorkspaceHandler.UpdateSettings, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "workspaces", Action: "admin"})))

	router.GET("/api/v1/fcs/:file_id/parameters",
		chain(deps.FCSHandler.Parameters, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "fcs", Action: "read"})))
	router.GET("/api/v1/fcs/:file_id/events",
		chain(deps.FCSHandler.Events, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "fcs", Action: "read"})))
	router.POST("/api/v1/fcs/:file_id/analyze",
		chain(deps.FCSHandler.Analyze, limiter.Handle, patMid.RequireScope(scopes.Scope{Resource: "fcs", Action: "analyze"})))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
