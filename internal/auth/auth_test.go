package auth_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardenhq/warden/internal/auth"
)

func TestPrincipalRoles(t *testing.T) {
	t.Run("nil principal has no roles", func(t *testing.T) {
		var p *auth.Principal
		if p.HasRole(auth.RoleReviewer) {
			t.Error("nil principal should not carry roles")
		}
		if p.Administrator() {
			t.Error("nil principal should not be an administrator")
		}
	})

	t.Run("role lookup", func(t *testing.T) {
		p := &auth.Principal{Subject: "u1", Roles: []auth.Role{auth.RoleReviewer}}
		if !p.HasRole(auth.RoleReviewer) {
			t.Error("expected reviewer role")
		}
		if p.HasRole(auth.RoleDataAdmin) {
			t.Error("unexpected data admin role")
		}
		if p.Administrator() {
			t.Error("reviewer should not be an administrator")
		}
	})

	t.Run("either admin role elevates", func(t *testing.T) {
		for _, role := range []auth.Role{auth.RoleSystemAdmin, auth.RoleDataAdmin} {
			p := &auth.Principal{Subject: "u1", Roles: []auth.Role{role}}
			if !p.Administrator() {
				t.Errorf("role %s should be an administrator", role)
			}
		}
	})
}

func TestPrincipalContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	if p := auth.PrincipalFromContext(req.Context()); p != nil {
		t.Errorf("expected anonymous context, got %+v", p)
	}

	want := &auth.Principal{Subject: "u1"}
	ctx := auth.WithPrincipal(req.Context(), want)
	if got := auth.PrincipalFromContext(ctx); got != want {
		t.Errorf("PrincipalFromContext = %+v, want %+v", got, want)
	}
}

func TestNilVerifierPassesThrough(t *testing.T) {
	var v *auth.Verifier

	called := false
	handler := v.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if p := auth.PrincipalFromContext(r.Context()); p != nil {
			t.Errorf("expected anonymous principal, got %+v", p)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected inner handler to run when auth is disabled")
	}
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := auth.RequireRole(logger, auth.RoleReviewer, auth.RoleDataAdmin)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name      string
		principal *auth.Principal
		want      int
	}{
		{"anonymous rejected", nil, http.StatusUnauthorized},
		{
			"wrong role rejected",
			&auth.Principal{Subject: "u1", Roles: []auth.Role{auth.RoleSystemAdmin}},
			http.StatusForbidden,
		},
		{
			"matching role passes",
			&auth.Principal{Subject: "u1", Roles: []auth.Role{auth.RoleReviewer}},
			http.StatusOK,
		},
		{
			"second listed role passes",
			&auth.Principal{Subject: "u1", Roles: []auth.Role{auth.RoleDataAdmin}},
			http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/attachments/1/security/review", nil)
			if tt.principal != nil {
				req = req.WithContext(auth.WithPrincipal(req.Context(), tt.principal))
			}

			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
