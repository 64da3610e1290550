package testutil

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/mockapi"
	"github.com/teamkonekt/konekt/internal/model"
)

// NewTestAPI starts srv on a local listener and returns a client pointed
// at it. The listener is closed when the test completes.
func NewTestAPI(t *testing.T, srv *mockapi.Server) *api.Client {
	t.Helper()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return api.NewClient(model.APIConfig{
		BaseURL:    ts.URL,
		AuthScheme: model.DefaultAuthScheme,
		TimeoutSec: 5,
	})
}

// SignIn logs client in as email and installs the token.
func SignIn(t *testing.T, client *api.Client, email, password string) model.Session {
	t.Helper()

	sess, err := client.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("logging in as %s: %v", email, err)
	}
	client.SetToken(sess.Token)
	return sess
}
