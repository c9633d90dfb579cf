package middleware

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"eduplatform-web/internal/httputil"
	"eduplatform-web/internal/observability"
)

// OpenAPIValidatorConfig holds configuration for OpenAPI validation middleware
type OpenAPIValidatorConfig struct {
	Enabled bool
	// Spec is the OpenAPI document (YAML or JSON)
	Spec []byte
	// ValidateRequests enables request validation
	ValidateRequests bool
	// ValidateResponses logs responses that do not match the document
	ValidateResponses bool
	// SkipPaths are path prefixes that bypass validation
	SkipPaths []string
	Logger    *slog.Logger
}

// DefaultOpenAPIValidatorConfig validates requests in every environment except
// production, where response validation stays off as well
func DefaultOpenAPIValidatorConfig(spec []byte, production bool) *OpenAPIValidatorConfig {
	return &OpenAPIValidatorConfig{
		Enabled:           !production,
		Spec:              spec,
		ValidateRequests:  true,
		ValidateResponses: false,
	}
}

// LoadOpenAPIRouter parses and validates the document and builds a route matcher
func LoadOpenAPIRouter(spec []byte) (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OpenAPI router: %w", err)
	}
	return doc, router, nil
}

// OpenAPIValidator validates requests (and optionally responses) against
// the OpenAPI document. A document that fails to load disables validation
// rather than the API.
func OpenAPIValidator(config *OpenAPIValidatorConfig) func(next http.Handler) http.Handler {
	passthrough := func(next http.Handler) http.Handler { return next }
	if config == nil || !config.Enabled {
		observability.Logger().Info("OpenAPI validation disabled")
		return passthrough
	}
	logger := config.Logger
	if logger == nil {
		logger = observability.Logger()
	}

	_, router, err := LoadOpenAPIRouter(config.Spec)
	if err != nil {
		logger.Error("OpenAPI validation unavailable", "error", err)
		return passthrough
	}

	logger.Info("OpenAPI validation enabled",
		"validate_requests", config.ValidateRequests,
		"validate_responses", config.ValidateResponses)

	options := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipPath(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if config.ValidateRequests {
					logger.Warn("request path not found in OpenAPI spec",
						"method", r.Method, "path", r.URL.Path)
					writeValidationError(w, http.StatusNotFound,
						fmt.Sprintf("Path not found in OpenAPI spec: %s %s", r.Method, r.URL.Path))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}

			if config.ValidateRequests {
				if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
					logger.Warn("request validation failed",
						"method", r.Method, "path", r.URL.Path, "error", err)
					writeValidationError(w, http.StatusBadRequest,
						fmt.Sprintf("Request validation failed: %s", firstLine(err.Error())))
					return
				}
			}

			if !config.ValidateResponses {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			err = openapi3filter.ValidateResponse(r.Context(), &openapi3filter.ResponseValidationInput{
				RequestValidationInput: input,
				Status:                 recorder.statusCode,
				Header:                 recorder.Header(),
				Body:                   io.NopCloser(bytes.NewReader(recorder.body)),
				Options:                options,
			})
			if err != nil {
				// Already sent; logged only
				logger.Warn("response validation failed",
					"method", r.Method, "path", r.URL.Path,
					"status", recorder.statusCode, "error", err)
			}
		})
	}
}

func shouldSkipPath(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func writeValidationError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return r.ResponseWriter.Write(b)
}
