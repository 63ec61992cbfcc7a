package identityapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
	"gatekeeper/contexts/identity-access/account-service/ports"
)

type stubTokens struct{}

func (stubTokens) Issue(subject string, _ []string, _ string, _ time.Duration) (string, error) {
	return "svc-" + subject, nil
}

func (stubTokens) Verify(_ string) (ports.TokenClaims, error) {
	return ports.TokenClaims{}, nil
}

func TestCreateUserSendsServiceToken(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int64{"userId": 7})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, stubTokens{}, nil)
	user, err := client.CreateUser(context.Background(), "li", "li@x.com", "correct-horse")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.UserID != 7 {
		t.Fatalf("expected user id 7, got %d", user.UserID)
	}
	if gotAuth != "Bearer svc-account-service" {
		t.Fatalf("expected outbound service token, got %q", gotAuth)
	}
	if gotBody["email"] != "li@x.com" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestClientStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "conflict maps to duplicate email", status: http.StatusConflict, want: domainerrors.ErrEmailAlreadyRegistered},
		{name: "unauthorized maps to bad credentials", status: http.StatusUnauthorized, want: domainerrors.ErrInvalidCredentials},
		{name: "not found maps to missing profile", status: http.StatusNotFound, want: domainerrors.ErrProfileNotFound},
		{name: "bad request maps to invalid action token", status: http.StatusBadRequest, want: domainerrors.ErrInvalidActionToken},
		{name: "gone maps to invalid action token", status: http.StatusGone, want: domainerrors.ErrInvalidActionToken},
		{name: "server error maps to identity unavailable", status: http.StatusInternalServerError, want: domainerrors.ErrIdentityUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second, nil, nil)
			_, err := client.CreateUser(context.Background(), "li", "li@x.com", "correct-horse")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

func TestClientWrapsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, nil, nil)
	_, err := client.ValidateCredentials(context.Background(), "li@x.com", "pw")
	if !errors.Is(err, domainerrors.ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable on connection failure, got %v", err)
	}
}

func TestGetUserRoles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/v1/users/42/roles" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"roles": {"user", "admin"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, nil)
	roles, err := client.GetUserRoles(context.Background(), 42)
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if len(roles) != 2 || roles[0] != "user" || roles[1] != "admin" {
		t.Fatalf("unexpected roles %v", roles)
	}
}
