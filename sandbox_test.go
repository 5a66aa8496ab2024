package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNodeBinary writes a script that stands in for the node. `init`
// produces baseline genesis/config; `run` announces the RPC address from
// $SANDBOX_TEST_RPC_ADDR on stderr and then idles like a daemon.
func fakeNodeBinary(t *testing.T) string {
	t.Helper()

	script := `#!/bin/sh
home="$2"
cmd="$3"
if [ "$cmd" = "init" ]; then
  cat > "$home/genesis.json" <<'EOF'
{"chain_id": "sandbox", "epoch_length": 500, "total_supply": "0", "records": []}
EOF
  cat > "$home/config.json" <<'EOF'
{"rpc": {"addr": "0.0.0.0:3030"}, "store": {}}
EOF
  exit 0
fi
if [ -n "$SANDBOX_TEST_RPC_ADDR" ]; then
  echo "INFO near_jsonrpc: JSON RPC server started addr=$SANDBOX_TEST_RPC_ADDR" >&2
fi
exec sleep 300
`
	path := filepath.Join(t.TempDir(), "near-sandbox")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// statusEndpoint serves a minimal node status response and returns its
// host:port.
func statusEndpoint(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"chain_id":"sandbox","sync_info":{"syncing":false}}`)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestStartAndClose(t *testing.T) {
	addr := statusEndpoint(t)
	t.Setenv("NEAR_SANDBOX_BIN_PATH", fakeNodeBinary(t))
	t.Setenv("SANDBOX_TEST_RPC_ADDR", addr)

	sb, err := Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://"+addr, sb.RPCAddr)
	assert.FileExists(t, filepath.Join(sb.HomeDir, "genesis.json"))
	assert.FileExists(t, filepath.Join(sb.HomeDir, "config.json"))

	// The default genesis account's key file is persisted alongside.
	assert.FileExists(t, filepath.Join(sb.HomeDir, DefaultGenesisAccount+".json"))

	pid := sb.proc.PID()
	home := sb.HomeDir

	sb.Close()
	sb.Close() // double close is a no-op

	assert.NoDirExists(t, home)
	assert.Error(t, syscall.Kill(pid, syscall.Signal(0)), "node process should be gone")
}

func TestStartWithConfigAppliesPatches(t *testing.T) {
	addr := statusEndpoint(t)
	t.Setenv("NEAR_SANDBOX_BIN_PATH", fakeNodeBinary(t))
	t.Setenv("SANDBOX_TEST_RPC_ADDR", addr)

	key, err := GenerateKeyPair()
	require.NoError(t, err)

	sb, err := StartWithConfig(context.Background(), Config{
		AdditionalGenesis: json.RawMessage(`{"epoch_length": 100}`),
		AdditionalAccounts: []GenesisAccount{{
			AccountID:  "alice.sandbox",
			PublicKey:  key.PublicKey,
			PrivateKey: key.PrivateKey,
			Balance:    DefaultGenesisBalance(),
		}},
	})
	require.NoError(t, err)
	defer sb.Close()

	data, err := os.ReadFile(filepath.Join(sb.HomeDir, "genesis.json"))
	require.NoError(t, err)
	var genesis map[string]any
	require.NoError(t, json.Unmarshal(data, &genesis))

	assert.EqualValues(t, 100, genesis["epoch_length"])
	assert.Len(t, genesis["records"], 4, "default account and alice, two records each")
	assert.FileExists(t, filepath.Join(sb.HomeDir, "alice.sandbox.json"))
}

func TestStartRejectsDuplicateAccounts(t *testing.T) {
	t.Setenv("NEAR_SANDBOX_BIN_PATH", fakeNodeBinary(t))

	_, err := StartWithConfig(context.Background(), Config{
		AdditionalAccounts: []GenesisAccount{
			{AccountID: "alice.sandbox", PublicKey: "ed25519:pk", PrivateKey: "ed25519:sk"},
			{AccountID: "alice.sandbox", PublicKey: "ed25519:pk", PrivateKey: "ed25519:sk"},
		},
	})
	require.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestStartTimeoutCleansUp(t *testing.T) {
	t.Setenv("NEAR_SANDBOX_BIN_PATH", fakeNodeBinary(t))
	// No SANDBOX_TEST_RPC_ADDR: the fake node never announces an address,
	// so discovery has to run into the deadline.
	t.Setenv("SANDBOX_TEST_RPC_ADDR", "")
	t.Setenv("NEAR_RPC_TIMEOUT_SECS", "1")

	var homes []string
	entries, _ := filepath.Glob(filepath.Join(os.TempDir(), "near-sandbox-home-*"))
	homes = append(homes, entries...)

	start := time.Now()
	_, err := Start(context.Background())
	require.ErrorIs(t, err, ErrReadinessTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)

	// No new home directory survives the failure.
	after, _ := filepath.Glob(filepath.Join(os.TempDir(), "near-sandbox-home-*"))
	assert.Len(t, after, len(homes), "home dir must be cleaned up on timeout")
}

func TestStartMalformedEnvFailsLoudly(t *testing.T) {
	// A bad variable must not quietly drop the other overrides (here the
	// binary path) and fall back to downloading a default binary.
	t.Setenv("NEAR_SANDBOX_BIN_PATH", fakeNodeBinary(t))
	t.Setenv("NEAR_RPC_TIMEOUT_SECS", "not-a-number")

	_, err := Start(context.Background())
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "NEAR_RPC_TIMEOUT_SECS")
}

func TestStartContextCanceled(t *testing.T) {
	t.Setenv("NEAR_SANDBOX_BIN_PATH", fakeNodeBinary(t))
	t.Setenv("SANDBOX_TEST_RPC_ADDR", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Start(ctx)
	require.Error(t, err)
}
