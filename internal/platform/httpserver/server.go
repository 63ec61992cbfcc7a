package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	orderservice "gatekeeper/contexts/commerce/order-service"
	ordererrors "gatekeeper/contexts/commerce/order-service/domain/errors"
	orderhttp "gatekeeper/contexts/commerce/order-service/transport/http"
	accountservice "gatekeeper/contexts/identity-access/account-service"
	accounterrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
	accounthttp "gatekeeper/contexts/identity-access/account-service/transport/http"
	authorizationservice "gatekeeper/contexts/identity-access/authorization-service"
	authzerrors "gatekeeper/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "gatekeeper/contexts/identity-access/authorization-service/transport/http"
	tokenservice "gatekeeper/contexts/identity-access/token-service"
	tokenhttp "gatekeeper/contexts/identity-access/token-service/adapters/http"
	tokenerrors "gatekeeper/contexts/identity-access/token-service/domain/errors"
	"gatekeeper/internal/platform/admission"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "gatekeeper/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	accounts  accountservice.Module
	authz     authorizationservice.Module
	orders    orderservice.Module
	tokens    tokenservice.Module
	admission admission.Middleware
}

type Dependencies struct {
	Accounts      accountservice.Module
	Authorization authorizationservice.Module
	Orders        orderservice.Module
	Tokens        tokenservice.Module
	FlowRules     []admission.FlowRule
	Logger        *slog.Logger
	Addr          string
}

func New(deps Dependencies) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := deps.Addr
	if addr == "" {
		addr = ":8080"
	}

	limiter, err := admission.NewLimiter(deps.FlowRules)
	if err != nil {
		return nil, err
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		accounts: deps.Accounts,
		authz:    deps.Authorization,
		orders:   deps.Orders,
		tokens:   deps.Tokens,
		admission: admission.Middleware{
			Limiter: limiter,
			Logger:  logger,
		},
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the composed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// registerRoutes wires every route through admission control keyed by the mux
// pattern; protected routes additionally require a verified access token.
func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.public("POST /api/auth/v1/register", s.handleRegister)
	s.public("POST /api/auth/v1/login", s.handleLogin)
	s.public("POST /api/auth/v1/refresh", s.handleRefresh)
	s.public("POST /api/auth/v1/password-reset/request", s.handleRequestPasswordReset)
	s.public("POST /api/auth/v1/password-reset/confirm", s.handleConfirmPasswordReset)
	s.public("POST /api/auth/v1/email-verification/request", s.handleRequestEmailVerification)
	s.public("POST /api/auth/v1/email-verification/confirm", s.handleConfirmEmailVerification)

	s.protected("GET /api/auth/v1/profiles", s.handleListProfiles)
	s.protected("GET /api/auth/v1/profiles/{user_id}", s.handleGetProfile)

	s.protected("GET /api/authz/v1/users/{user_id}/roles", s.handleListUserRoles)
	s.protected("POST /api/authz/v1/users/{user_id}/roles/grant", s.handleGrantRole)
	s.protected("POST /api/authz/v1/users/{user_id}/roles/revoke", s.handleRevokeRole)

	s.protected("GET /api/orders/v1/accounts", s.handleListAccounts)
	s.protected("GET /api/orders/v1/accounts/{user_id}", s.handleGetAccount)
}

func (s *Server) public(pattern string, handler http.HandlerFunc) {
	s.mux.Handle(pattern, s.admission.Wrap(pattern, handler))
}

func (s *Server) protected(pattern string, handler http.HandlerFunc) {
	s.mux.Handle(pattern, s.admission.Wrap(pattern, s.tokens.Middleware.RequireAccessToken(handler)))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.LoginHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.RefreshHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	resp, err := s.accounts.Handler.GetProfileHandler(r.Context(), userID)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.accounts.Handler.ListProfilesHandler(r.Context())
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.RequestPasswordResetHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.ConfirmPasswordResetHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.EmailVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.RequestEmailVerificationHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleConfirmEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.EmailVerificationConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccountError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}
	resp, err := s.accounts.Handler.ConfirmEmailVerificationHandler(r.Context(), req)
	if err != nil {
		writeAccountDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	resp, err := s.authz.Handler.ListUserRolesHandler(r.Context(), userID)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	var req authzhttp.GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authz.Handler.GrantRoleHandler(r.Context(), userID, req, callerSubject(r))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	var req authzhttp.GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authz.Handler.RevokeRoleHandler(r.Context(), userID, req.RoleID)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	resp, err := s.orders.Handler.GetAccountHandler(r.Context(), userID)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.ListAccountsHandler(r.Context())
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, accounthttp.ErrorResponse{
			Code:    "invalid_user_id",
			Message: "user_id must be an integer",
		})
		return 0, false
	}
	return userID, true
}

func callerSubject(r *http.Request) string {
	if claims, ok := tokenhttp.ClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

func writeAccountDomainError(w http.ResponseWriter, err error) {
	var fields accounterrors.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeAccountError(w, http.StatusBadRequest, "invalid_request", "request validation failed", fields)
	case errors.Is(err, accounterrors.ErrInvalidRequest):
		writeAccountError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, accounterrors.ErrEmailAlreadyRegistered):
		writeAccountError(w, http.StatusConflict, "email_already_registered", err.Error(), nil)
	case errors.Is(err, accounterrors.ErrInvalidCredentials):
		writeAccountError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, accounterrors.ErrRefreshTokenRequired):
		writeAccountError(w, http.StatusUnauthorized, "refresh_token_required", err.Error(), nil)
	case isTokenError(err):
		writeAccountError(w, http.StatusUnauthorized, "invalid_token", err.Error(), nil)
	case errors.Is(err, accounterrors.ErrProfileNotFound):
		writeAccountError(w, http.StatusNotFound, "profile_not_found", err.Error(), nil)
	case errors.Is(err, accounterrors.ErrInvalidActionToken):
		writeAccountError(w, http.StatusBadRequest, "invalid_action_token", err.Error(), nil)
	case errors.Is(err, accounterrors.ErrIdentityUnavailable):
		writeAccountError(w, http.StatusBadGateway, "identity_unavailable", "identity service unavailable", nil)
	default:
		writeAccountError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, tokenerrors.ErrMalformedToken) ||
		errors.Is(err, tokenerrors.ErrSignatureInvalid) ||
		errors.Is(err, tokenerrors.ErrIssuerMismatch) ||
		errors.Is(err, tokenerrors.ErrAudienceMismatch) ||
		errors.Is(err, tokenerrors.ErrTokenExpired) ||
		errors.Is(err, tokenerrors.ErrWrongTokenType)
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidUser),
		errors.Is(err, authzerrors.ErrInvalidRole):
		writeAuthzError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrRoleAlreadyGranted):
		writeAuthzError(w, http.StatusConflict, "role_already_granted", err.Error())
	case errors.Is(err, authzerrors.ErrAssignmentNotFound):
		writeAuthzError(w, http.StatusNotFound, "assignment_not_found", err.Error())
	default:
		writeAuthzError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOrderDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ordererrors.ErrInvalidUser):
		writeOrderError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ordererrors.ErrAccountNotFound):
		writeOrderError(w, http.StatusNotFound, "account_not_found", err.Error())
	default:
		writeOrderError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAccountError(w http.ResponseWriter, status int, code string, message string, fields map[string]string) {
	writeJSON(w, status, accounthttp.ErrorResponse{
		Code:    code,
		Message: message,
		Fields:  fields,
	})
}

func writeAuthzError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{Code: code, Message: message})
}

func writeOrderError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, orderhttp.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
