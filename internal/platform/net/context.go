// Package net provides request context helpers shared by transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyClientID ctxKey = "client_id"

// WithRequest annotates context with the request id and the authenticated client
func WithRequest(ctx context.Context, reqID, clientID string) context.Context {
	if reqID != "" {
		// chi's key so chimw.GetReqID keeps working
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if clientID != "" {
		ctx = context.WithValue(ctx, keyClientID, clientID)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// ClientID returns the authenticated client on the context if present
func ClientID(ctx context.Context) string {
	v, _ := ctx.Value(keyClientID).(string)
	return v
}
