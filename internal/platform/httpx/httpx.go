// Package httpx provides HTTP middleware and response helpers.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/platform/errors/i18n"
	"github.com/louisbranch/crosspromo/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
)

const requestIDHeader = "X-Request-ID"

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

var requestIDCounter atomic.Uint64

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID(prefix string) Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), requestIDCounter.Add(1))
				r.Header.Set(requestIDHeader, requestID)
			}
			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Printf(
						"panic recovered method=%s path=%s request_id=%s panic=%v stack=%s",
						r.Method,
						r.URL.Path,
						r.Header.Get(requestIDHeader),
						recovered,
						strings.TrimSpace(string(debug.Stack())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// ErrorBody is the JSON shape of a failed request.
type ErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// WriteError writes err as an ErrorBody localized for the request.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}
	code := apperrors.CodeOf(err)
	metadata := map[string]string(nil)
	if domainErr, ok := apperrors.As(err); ok {
		metadata = domainErr.Metadata
	}
	body := ErrorBody{
		Code:     string(code),
		Message:  i18n.Message(Locale(r), string(code), metadata),
		Redirect: apperrors.HintOf(err),
	}
	if code.Kind() == apperrors.KindInfrastructure {
		log.Printf("request failed method=%s path=%s request_id=%s err=%v", r.Method, r.URL.Path, r.Header.Get(requestIDHeader), err)
	}
	_ = WriteJSON(w, code.HTTPStatus(), body)
}

var supportedLocales = func() []language.Tag {
	locales := catalog.Default().Locales()
	tags := []language.Tag{language.MustParse(catalog.BaseLocale)}
	for _, locale := range locales {
		if locale == catalog.BaseLocale {
			continue
		}
		tags = append(tags, language.MustParse(locale))
	}
	return tags
}()

var localeMatcher = language.NewMatcher(supportedLocales)

// Locale picks the best catalog locale for the request's Accept-Language.
func Locale(r *http.Request) string {
	if r == nil {
		return catalog.BaseLocale
	}
	accept := r.Header.Get("Accept-Language")
	if strings.TrimSpace(accept) == "" {
		return catalog.BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return catalog.BaseLocale
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return catalog.BaseLocale
	}
	return supportedLocales[index].String()
}

// RequestContext returns r.Context() with a nil-safe fallback to context.Background().
func RequestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

// WriteRedirect sends a 303 so form posts land on a GET.
func WriteRedirect(w http.ResponseWriter, r *http.Request, location string) {
	if w == nil {
		return
	}
	if r == nil {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
