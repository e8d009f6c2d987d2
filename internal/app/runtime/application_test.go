package runtime

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/R3E-Network/book_catalog/internal/config"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/pkg/client"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startServer(t *testing.T) (*client.Client, func() error) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 2 * time.Second
	application, err := NewApplication(cfg, logging.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()

	c := client.New(client.Config{BaseURL: "http://" + ln.Addr().String(), Timeout: 5 * time.Second})
	stop := func() error {
		c.Close()
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return stderrors.New("server did not stop")
		}
	}
	return c, stop
}

func TestServeEndToEnd(t *testing.T) {
	c, stop := startServer(t)
	ctx := context.Background()

	books, err := c.Books(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 10)

	require.NoError(t, c.Register(ctx, "alice", "pw"))
	session, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	authed := c.WithToken(session.Token)
	put, err := authed.PutReview(ctx, "1", "Great")
	require.NoError(t, err)
	assert.Equal(t, "Review added.", put.Message)

	reviews, err := c.Reviews(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Great", reviews["alice"])

	_, err = authed.DeleteReview(ctx, "1")
	require.NoError(t, err)

	_, err = authed.DeleteReview(ctx, "1")
	assert.True(t, client.IsNotFound(err))

	require.NoError(t, stop())
}

func TestServeStopsOnCancel(t *testing.T) {
	c, stop := startServer(t)

	_, err := c.Book(context.Background(), "1")
	require.NoError(t, err)

	require.NoError(t, stop())

	_, err = http.Get(c.BaseURL() + "/health")
	assert.Error(t, err)
}

func TestNewApplicationRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Path = "/definitely/not/here.yaml"

	_, err := NewApplication(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestRunFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port
	application, err := NewApplication(cfg, logging.NewNop())
	require.NoError(t, err)

	assert.Error(t, application.Run(context.Background()))
}
