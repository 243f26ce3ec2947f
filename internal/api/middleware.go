package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/input"
)

type contextKey string

const (
	mappingKeyContextKey contextKey = "mappingKey"
	sessionContextKey    contextKey = "session"
)

// validateJSONRequest rejects bodies that are not declared as JSON.
func (s *Server) validateJSONRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType := r.Header.Get("Content-Type"); contentType != "" {
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != "application/json" {
				s.sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// validateMappingKey checks that {key} has the "<device>:<element>" form.
func (s *Server) validateMappingKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := url.PathUnescape(chi.URLParam(r, "key"))
		if err != nil {
			s.sendError(w, fmt.Sprintf("%v: %v", ErrInvalidKey, err), http.StatusBadRequest)
			return
		}
		if _, _, ok := input.SplitKey(key); !ok {
			s.sendError(w, fmt.Sprintf("%v: %q", ErrInvalidKey, key), http.StatusBadRequest)
			return
		}
		ctx := context.WithValue(r.Context(), mappingKeyContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateHandle resolves {handle} to a live session.
func (s *Server) validateHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.devices == nil {
			s.sendError(w, "no device manager", http.StatusNotFound)
			return
		}
		handle, err := uuid.Parse(chi.URLParam(r, "handle"))
		if err != nil {
			s.sendError(w, fmt.Sprintf("invalid device handle: %v", err), http.StatusBadRequest)
			return
		}
		session, ok := s.devices.Session(handle)
		if !ok {
			s.sendError(w, fmt.Sprintf("%v: %s", ErrUnknownDevice, handle), http.StatusNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func mappingKeyFrom(r *http.Request) string {
	key, _ := r.Context().Value(mappingKeyContextKey).(string)
	return key
}

func sessionFrom(r *http.Request) *device.Session {
	session, _ := r.Context().Value(sessionContextKey).(*device.Session)
	return session
}
