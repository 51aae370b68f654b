package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/faceit-ledger/internal/api"
	"github.com/mcoot/faceit-ledger/internal/config"
	"github.com/mcoot/faceit-ledger/internal/factory"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/testutil"
)

const (
	ownerAddr = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	aliceAddr = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"

	ownerPassphrase = "owner-secret"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "ledgerctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/ledgerctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// as returns a runner sharing the binary but keeping its own session
func (r *cliRunner) as(t *testing.T) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	logger := testutil.NopLogger()
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)
	require.NoError(t, app.Bootstrap(context.Background(), model.MustParseAddress(ownerAddr), ownerPassphrase, []config.Allocation{
		{Address: model.MustParseAddress(aliceAddr), Amount: model.MustParseAmount("1ether")},
	}))

	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		AuthService:   app.AuthService,
		Ledger:        app.Ledger,
		Hub:           app.Hub,
		FaucetEnabled: true,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type accountResponse struct {
	Address     string `json:"address"`
	Nickname    string `json:"nickname"`
	Rating      int64  `json:"rating"`
	Balance     string `json:"balance"`
	Participant bool   `json:"participant"`
}

type balanceResponse struct {
	Wei   string `json:"wei"`
	Ether string `json:"ether"`
}

type nextClaimResponse struct {
	Seconds int64 `json:"seconds"`
	Ready   bool  `json:"ready"`
}

type receiptResponse struct {
	TxID   string `json:"tx_id"`
	Op     string `json:"op"`
	From   string `json:"from"`
	Value  string `json:"value"`
	Payout string `json:"payout"`
	Events []struct {
		Identity string `json:"identity"`
		Balance  string `json:"balance"`
		Reward   string `json:"reward"`
	} `json:"events"`
}

type eventResponse struct {
	Identity string `json:"identity"`
	Reward   string `json:"reward"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func decodeOutput[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "ok", decodeOutput[healthResponse](t, output).Status)
}

func TestCLI_AuthCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("auth", "register", "--address", aliceAddr, "--passphrase", "password123")
	require.NoError(t, err, "output: %s", output)
	auth := decodeOutput[authResponse](t, output)
	assert.Equal(t, aliceAddr, auth.Address)
	assert.NotEmpty(t, auth.Token)

	// Token is saved in the token file
	output, err = cli.run("account", "create", "--nickname", "vasyan", "--rating", "1839")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("auth", "login", "--address", aliceAddr, "--passphrase", "wrong-password")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")
}

func TestCLI_WeeklyClaimFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := newCLIRunner(t, ts.addr)
	owner := alice.as(t)

	output, err := owner.run("auth", "login", "--address", ownerAddr, "--passphrase", ownerPassphrase)
	require.NoError(t, err, "output: %s", output)
	output, err = alice.run("auth", "register", "--address", aliceAddr, "--passphrase", "password123")
	require.NoError(t, err, "output: %s", output)

	// Create and stake
	output, err = alice.run("account", "create", "--nickname", "vasyan", "--rating", "1839")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "create_account", decodeOutput[receiptResponse](t, output).Op)

	output, err = alice.run("account", "participate")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "3750000000000000", decodeOutput[receiptResponse](t, output).Value)

	output, err = alice.run("account", "show")
	require.NoError(t, err, "output: %s", output)
	acc := decodeOutput[accountResponse](t, output)
	assert.Equal(t, "vasyan", acc.Nickname)
	assert.True(t, acc.Participant)

	output, err = alice.run("account", "list")
	require.NoError(t, err, "output: %s", output)
	listed := decodeOutput[[]accountResponse](t, output)
	require.Len(t, listed, 1)
	assert.Equal(t, aliceAddr, listed[0].Address)

	output, err = alice.run("account", "next-claim")
	require.NoError(t, err, "output: %s", output)
	assert.False(t, decodeOutput[nextClaimResponse](t, output).Ready)

	// Claiming before the week is up fails
	output, err = alice.run("account", "claim", "--rating", "1849")
	assert.Error(t, err)
	assert.Contains(t, output, "TOO_EARLY")

	// Owner fast-forwards alice's claim clock
	output, err = owner.run("contract", "correct-claim-time", aliceAddr)
	require.NoError(t, err, "output: %s", output)

	output, err = alice.run("--idempotency-key", "claim-1", "account", "claim", "--rating", "1849")
	require.NoError(t, err, "output: %s", output)
	claim := decodeOutput[receiptResponse](t, output)
	assert.Equal(t, "claim-1", claim.TxID)
	assert.Equal(t, "10", claim.Payout)
	require.Len(t, claim.Events, 1)
	assert.Equal(t, "10", claim.Events[0].Balance)

	// Retrying with the same key returns the stored receipt
	output, err = alice.run("--idempotency-key", "claim-1", "account", "claim", "--rating", "1849")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, claim, decodeOutput[receiptResponse](t, output))

	output, err = alice.run("receipt", "claim-1")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "balance_accrual", decodeOutput[receiptResponse](t, output).Op)

	output, err = alice.run("events", "list", "--identity", aliceAddr)
	require.NoError(t, err, "output: %s", output)
	events := decodeOutput[[]eventResponse](t, output)
	require.Len(t, events, 1)
	assert.Equal(t, "10", events[0].Reward)

	output, err = alice.run("account", "balance")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "10", decodeOutput[balanceResponse](t, output).Wei)
}

func TestCLI_ContractCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := newCLIRunner(t, ts.addr)
	owner := alice.as(t)

	output, err := owner.run("auth", "login", "--address", ownerAddr, "--passphrase", ownerPassphrase)
	require.NoError(t, err, "output: %s", output)
	output, err = alice.run("auth", "register", "--address", aliceAddr, "--passphrase", "password123")
	require.NoError(t, err, "output: %s", output)

	// The owner address is never open for registration
	output, err = alice.as(t).run("auth", "register", "--address", ownerAddr, "--passphrase", "password123")
	assert.Error(t, err)
	assert.Contains(t, output, "ADDRESS_RESERVED")

	output, err = alice.run("contract", "owner")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, ownerAddr)

	output, err = alice.run("contract", "fund", "--value", "0.25ether")
	require.NoError(t, err, "output: %s", output)

	output, err = alice.run("contract", "balance")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "0.25", decodeOutput[balanceResponse](t, output).Ether)

	output, err = alice.run("contract", "withdraw")
	assert.Error(t, err)
	assert.Contains(t, output, "NOT_OWNER")

	output, err = owner.run("contract", "withdraw")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "250000000000000000", decodeOutput[receiptResponse](t, output).Payout)

	output, err = owner.run("wallet", "balance", ownerAddr)
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "0.25", decodeOutput[balanceResponse](t, output).Ether)

	output, err = owner.run("wallet", "faucet", ownerAddr, "--amount", "1ether")
	require.NoError(t, err, "output: %s", output)

	output, err = owner.run("wallet", "balance", ownerAddr)
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "1.25", decodeOutput[balanceResponse](t, output).Ether)
}
