package userdir

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fractionlab/ordercore/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUserByID(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/" + userID.String():
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id":    userID.String(),
				"email": "owner@example.com",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	defer func() { _ = client.Close() }()

	ctx := t.Context()

	t.Run("known user", func(t *testing.T) {
		user, err := client.FindUserByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "owner@example.com", user.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := client.FindUserByID(ctx, uuid.New())
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestFindUserByEmail(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)

		if r.URL.Query().Get("email") != "buyer@example.com" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    userID.String(),
			"email": "buyer@example.com",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	defer func() { _ = client.Close() }()

	ctx := t.Context()

	t.Run("known email", func(t *testing.T) {
		user, err := client.FindUserByEmail(ctx, "buyer@example.com")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := client.FindUserByEmail(ctx, "stranger@example.com")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserDirectoryFailures(t *testing.T) {
	t.Run("server error surfaces status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		defer func() { _ = client.Close() }()

		_, err := client.FindUserByID(t.Context(), uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status: 500")
	})

	t.Run("malformed id in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "not-a-uuid", "email": "x@example.com"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		defer func() { _ = client.Close() }()

		_, err := client.FindUserByID(t.Context(), uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid id")
	})
}
