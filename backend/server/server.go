package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/jghoshh/getfit/backend/coaching"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/server/auth"
	"github.com/jghoshh/getfit/backend/server/contextkey"
	"github.com/jghoshh/getfit/backend/server/graph"
	"github.com/jghoshh/getfit/backend/validation"
)

const maxBodyBytes = 1 << 20

// Deps are the services the RPC procedures call into.
type Deps struct {
	Repo     *repository.Repository
	Auth     *auth.Authenticator
	Coaching *coaching.Service
}

// Server serves the procedure table over HTTP, both as RPC endpoints and as
// a GraphQL schema.
type Server struct {
	deps       Deps
	procedures map[string]procedure
	httpServer *http.Server
}

func New(deps Deps) *Server {
	s := &Server{deps: deps}
	s.procedures = s.buildProcedures()
	for _, name := range graph.Procedures() {
		if _, ok := s.procedures[name]; !ok {
			panic("graphql schema calls unknown procedure " + name)
		}
	}
	return s
}

// jwtMiddleware validates the bearer token of a request, when present. A
// valid token puts the user id and email into the request context; an
// invalid or expired one puts the error there instead. The request always
// continues: each procedure decides whether it needs a user.
func jwtMiddleware(a *auth.Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
			claims, err := a.ParseAuthToken(token)
			ctx := r.Context()
			if err != nil {
				ctx = context.WithValue(ctx, contextkey.JwtErrorKey, err)
			} else {
				ctx = context.WithValue(ctx, contextkey.UserIDKey, claims.UserID)
				ctx = context.WithValue(ctx, contextkey.EmailKey, claims.Email)
			}
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware is a middleware function that recovers from panics and provides a generic error message to the client.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %s\n", err)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: rpcError{Code: "internal", Message: genericMessage}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Router builds the HTTP handler: health check, RPC endpoint and GraphQL
// endpoint with its playground, wrapped in CORS and access logging.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.Handle("/rpc/{procedure}", recoveryMiddleware(jwtMiddleware(s.deps.Auth, http.HandlerFunc(s.handleRPC)))).
		Methods(http.MethodPost)

	// Initialize the GraphQL server
	srv := handler.NewDefaultServer(graph.NewExecutableSchema(graph.Config{Resolvers: s, Errors: graphError}))
	r.Handle("/graphql", recoveryMiddleware(jwtMiddleware(s.deps.Auth, srv)))
	r.Handle("/playground", playground.Handler("GetFit GraphQL playground", "/graphql")).Methods(http.MethodGet)

	corsOrigins := handlers.AllowedOrigins([]string{"*"})
	corsMethods := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "OPTIONS"})
	corsHeaders := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	corsRouter := handlers.CORS(corsOrigins, corsMethods, corsHeaders)(r)

	return handlers.LoggingHandler(os.Stdout, corsRouter)
}

// Start listens on serverURL and blocks until the server stops.
func (s *Server) Start(serverURL string) error {
	s.httpServer = &http.Server{
		Handler:      s.Router(),
		Addr:         listenAddr(serverURL),
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Printf("server listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops a started server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// listenAddr accepts either a full URL or a bare host:port.
func listenAddr(serverURL string) string {
	if strings.Contains(serverURL, "://") {
		if u, err := url.Parse(serverURL); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return serverURL
}

// Call runs the named procedure for the user in ctx. Procedures that are not
// public fail with an unauthenticated error before any of their logic runs.
func (s *Server) Call(ctx context.Context, name string, raw []byte) (interface{}, error) {
	p, ok := s.procedures[name]
	if !ok {
		return nil, unknownProcedure(name)
	}

	userID, authenticated := contextkey.UserID(ctx)
	if !p.public && !authenticated {
		message := "Please sign in to continue."
		if err := contextkey.JwtError(ctx); err != nil {
			message = userMessage(err, message)
		}
		return nil, &auth.Error{Code: auth.CodeUnauthenticated, Message: message}
	}
	return p.handle(ctx, userID, raw)
}

type unknownProcedure string

func (e unknownProcedure) Error() string       { return "unknown procedure " + string(e) }
func (e unknownProcedure) UserMessage() string { return "Unknown procedure " + string(e) + "." }

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["procedure"]
	if _, ok := s.procedures[name]; !ok {
		writeError(w, name, unknownProcedure(name))
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: rpcError{Code: "invalid_input", Message: "The request body could not be read."}})
		return
	}

	result, err := s.Call(r.Context(), name, raw)
	if err != nil {
		writeError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, resultBody{Result: result})
}

type resultBody struct {
	Result interface{} `json:"result"`
}

type errorBody struct {
	Error rpcError `json:"error"`
}

type rpcError struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

const genericMessage = "Something went wrong. Please try again."

func writeError(w http.ResponseWriter, procedure string, err error) {
	status, body := failure(procedure, err)
	writeJSON(w, status, errorBody{Error: body})
}

// graphError reports a failed procedure as a GraphQL error carrying the same
// code and fields as the RPC error body.
func graphError(procedure string, err error) *gqlerror.Error {
	_, body := failure(procedure, err)
	extensions := map[string]interface{}{"code": body.Code}
	if len(body.Fields) > 0 {
		extensions["fields"] = body.Fields
	}
	return &gqlerror.Error{Message: body.Message, Extensions: extensions}
}

// failure maps domain errors onto HTTP statuses and error bodies. Anything
// unrecognized is logged and answered with a generic message.
func failure(procedure string, err error) (int, rpcError) {
	var (
		verr    *validation.Error
		aerr    *auth.Error
		rerr    *repository.Error
		decoded *decodeError
		unknown unknownProcedure
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, rpcError{Code: "invalid_input", Message: verr.UserMessage(), Fields: verr.Fields}
	case errors.As(err, &decoded):
		return http.StatusBadRequest, rpcError{Code: "invalid_input", Message: decoded.UserMessage()}
	case errors.As(err, &unknown):
		return http.StatusNotFound, rpcError{Code: "not_found", Message: unknown.UserMessage()}
	case errors.As(err, &aerr):
		status := http.StatusBadRequest
		switch aerr.Code {
		case auth.CodeUnauthenticated:
			status = http.StatusUnauthorized
		case auth.CodeConflict:
			status = http.StatusConflict
		}
		return status, rpcError{Code: aerr.Code, Message: aerr.UserMessage()}
	case errors.As(err, &rerr):
		status := http.StatusBadRequest
		switch rerr.Code {
		case repository.CodeNotFound:
			status = http.StatusNotFound
		case repository.CodeForbidden:
			status = http.StatusForbidden
		}
		return status, rpcError{Code: rerr.Code, Message: rerr.UserMessage()}
	default:
		log.Printf("procedure %s failed: %v", procedure, err)
		return http.StatusInternalServerError, rpcError{Code: "internal", Message: genericMessage}
	}
}

func userMessage(err error, fallback string) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
