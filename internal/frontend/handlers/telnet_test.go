package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/whisperingwoods/woods/internal/config"
	"github.com/whisperingwoods/woods/internal/frontend/telnet"
	"github.com/whisperingwoods/woods/internal/testutil"
)

func TestHandler_OverTelnet(t *testing.T) {
	h, _ := newTestHandler(t)
	cfg := config.TelnetConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	acc := telnet.NewAcceptor(cfg, h, zaptest.NewLogger(t))

	errCh := make(chan error, 1)
	go func() { errCh <- acc.Start() }()
	select {
	case <-acc.Ready():
	case err := <-errCh:
		t.Fatalf("acceptor failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("acceptor did not start")
	}
	t.Cleanup(func() {
		acc.Stop()
		require.NoError(t, <-errCh)
	})

	client := testutil.NewTelnetClient(t, acc.Addr())
	client.ReadUntil("Save name", 2*time.Second)
	client.Send("telly")
	client.ReadUntil("You are in Whispering Grove.", 2*time.Second)
	client.Send("get")
	client.ReadUntil("into your backpack.", 2*time.Second)
	client.Send("quit")
	client.ReadUntil("farewell", 2*time.Second)
}
