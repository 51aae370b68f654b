package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/faceit-ledger/internal/api"
	"github.com/mcoot/faceit-ledger/internal/api/apierr"
	"github.com/mcoot/faceit-ledger/internal/api/response"
	"github.com/mcoot/faceit-ledger/internal/config"
	"github.com/mcoot/faceit-ledger/internal/factory"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/testutil"
)

const (
	ownerAddr = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	aliceAddr = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
	bobAddr   = "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"

	ownerPassphrase  = "owner-secret"
	playerPassphrase = "password123"
)

// testServer wraps the router and the test app behind it
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, faucet bool) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.Bootstrap(t.Context(), model.MustParseAddress(ownerAddr), ownerPassphrase, []config.Allocation{
		{Address: model.MustParseAddress(aliceAddr), Amount: model.MustParseAmount("1ether")},
		{Address: model.MustParseAddress(bobAddr), Amount: model.MustParseAmount("1ether")},
	}))

	router := api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		AuthService:   app.AuthService,
		Ledger:        app.Ledger,
		Hub:           app.Hub,
		FaucetEnabled: faucet,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, addr string) string {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"address":    addr,
		"passphrase": playerPassphrase,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func (ts *testServer) login(t *testing.T, addr, passphrase string) string {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"address":    addr,
		"passphrase": passphrase,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.AuthResponse](t, rr).Token
}

// waitCooldown moves the clock past the claim cooldown. Sessions are
// shorter than the cooldown, so it returns a fresh session for addr.
func (ts *testServer) waitCooldown(t *testing.T, addr string) string {
	t.Helper()
	ts.app.MockClock.Advance(7 * 24 * time.Hour)
	return ts.login(t, addr, playerPassphrase)
}

// stakedPlayer registers addr, creates its account and participates
func (ts *testServer) stakedPlayer(t *testing.T, addr, nickname string, rating int64) string {
	t.Helper()
	token := ts.register(t, addr)

	rr := ts.request(http.MethodPost, "/api/v1/account", map[string]any{"nickname": nickname, "rating": rating}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/account/participate", map[string]string{"value": "0.00375ether"}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t, false)
	ts.register(t, aliceAddr)

	rr := ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"address":    aliceAddr,
		"passphrase": playerPassphrase,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.Address(aliceAddr), decode[response.AuthResponse](t, rr).Address)

	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"address":    aliceAddr,
		"passphrase": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"address":    "0x1234",
		"passphrase": playerPassphrase,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidAddress, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"address":    aliceAddr,
		"passphrase": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeWeakPassphrase, errorCode(t, rr))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.register(t, aliceAddr)

	rr := ts.request(http.MethodPost, "/api/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/account", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t, false)

	for _, path := range []string{"/api/v1/account", "/api/v1/account/participate", "/api/v1/contract/withdraw"} {
		rr := ts.request(http.MethodPost, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestCreateAccountTwice(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.register(t, aliceAddr)

	body := map[string]any{"nickname": "vasyan", "rating": 1839}
	rr := ts.request(http.MethodPost, "/api/v1/account", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, model.OpCreateAccount, decode[response.Receipt](t, rr).Op)

	rr = ts.request(http.MethodPost, "/api/v1/account", body, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyExists, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/account", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	acc := decode[response.Account](t, rr)
	assert.Equal(t, "vasyan", acc.Nickname)
	assert.Equal(t, int64(1839), acc.Rating)
	assert.False(t, acc.Participant)
	assert.Nil(t, acc.LastClaimAt)
}

func TestListAccounts(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.request(http.MethodGet, "/api/v1/accounts", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]response.Account](t, rr))

	ts.stakedPlayer(t, aliceAddr, "vasyan", 1839)
	bobToken := ts.register(t, bobAddr)
	rr = ts.request(http.MethodPost, "/api/v1/account", map[string]any{"nickname": "bob", "rating": 1500}, bobToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/accounts", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	accounts := decode[[]response.Account](t, rr)
	require.Len(t, accounts, 2)
	assert.Equal(t, model.Address(aliceAddr), accounts[0].Address)
	assert.True(t, accounts[0].Participant)
	assert.Equal(t, "bob", accounts[1].Nickname)
	assert.False(t, accounts[1].Participant)
}

func TestParticipateRequiresExactStake(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.register(t, aliceAddr)
	rr := ts.request(http.MethodPost, "/api/v1/account", map[string]any{"nickname": "vasyan", "rating": 1839}, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/account/participate", map[string]string{"value": "0.001ether"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidStake, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/account/participate", map[string]string{"value": "lots"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidAmount, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/account/participate", map[string]string{"value": "0.00375ether"}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/contract/balance", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	bal := decode[response.Balance](t, rr)
	assert.Equal(t, "3750000000000000", bal.Wei.String())
	assert.Equal(t, "0.00375", bal.Ether)
}

func TestWeeklyClaimFlow(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.stakedPlayer(t, aliceAddr, "vasyan", 1839)

	rr := ts.request(http.MethodPost, "/api/v1/account/claim", map[string]int64{"new_rating": 1849}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeTooEarly, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/account/next-claim", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	next := decode[response.NextClaim](t, rr)
	assert.Equal(t, int64((7 * 24 * time.Hour).Seconds()), next.Seconds)
	assert.False(t, next.Ready)

	token = ts.waitCooldown(t, aliceAddr)

	rr = ts.request(http.MethodPost, "/api/v1/account/claim", map[string]int64{"new_rating": 1849}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rc := decode[response.Receipt](t, rr)
	assert.Equal(t, "10", rc.Payout.String())
	require.Len(t, rc.Events, 1)
	assert.Equal(t, "10", rc.Events[0].Balance.String())

	rr = ts.request(http.MethodGet, "/api/v1/account/balance", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "10", decode[response.Balance](t, rr).Wei.String())

	rr = ts.request(http.MethodGet, "/api/v1/events?identity="+aliceAddr, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[[]response.Event](t, rr)
	require.Len(t, events, 1)
	assert.Equal(t, model.Address(aliceAddr), events[0].Identity)
	assert.Equal(t, "10", events[0].Reward.String())

	rr = ts.request(http.MethodGet, "/api/v1/events?identity="+bobAddr, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]response.Event](t, rr))
}

func TestClaimWithoutGain(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.stakedPlayer(t, aliceAddr, "vasyan", 1839)

	rr := ts.request(http.MethodPost, "/api/v1/account/claim", map[string]int64{"new_rating": 1839}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeZeroGain, errorCode(t, rr))
}

func TestIdempotencyKey(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.register(t, aliceAddr)
	body := map[string]any{"nickname": "vasyan", "rating": 1839}

	first := ts.request(http.MethodPost, "/api/v1/account", body, token, "Idempotency-Key", "create-1")
	require.Equal(t, http.StatusCreated, first.Code)

	retry := ts.request(http.MethodPost, "/api/v1/account", body, token, "Idempotency-Key", "create-1")
	require.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, decode[response.Receipt](t, first), decode[response.Receipt](t, retry))

	rr := ts.request(http.MethodPost, "/api/v1/account/participate", map[string]string{"value": "0.00375ether"}, token, "Idempotency-Key", "create-1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeTxConflict, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/receipts/create-1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.TxID("create-1"), decode[response.Receipt](t, rr).TxID)

	rr = ts.request(http.MethodGet, "/api/v1/receipts/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOwnerOperations(t *testing.T) {
	ts := newTestServer(t, false)
	ownerToken := ts.login(t, ownerAddr, ownerPassphrase)
	aliceToken := ts.stakedPlayer(t, aliceAddr, "vasyan", 1839)

	rr := ts.request(http.MethodGet, "/api/v1/contract/owner", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.Address(ownerAddr), decode[response.Owner](t, rr).Owner)

	rr = ts.request(http.MethodPost, "/api/v1/contract/withdraw", nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotOwner, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/contract/accounts/"+aliceAddr+"/correct-claim-time", nil, ownerToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/account/claim", map[string]int64{"new_rating": 1849}, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/contract/withdraw", nil, ownerToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "3749999999999990", decode[response.Receipt](t, rr).Payout.String())

	rr = ts.request(http.MethodGet, "/api/v1/contract", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	contract := decode[response.Contract](t, rr)
	assert.True(t, contract.Balance.IsZero())
	assert.Equal(t, model.Address(ownerAddr), contract.Owner)
	assert.Equal(t, int64((7 * 24 * time.Hour).Seconds()), contract.CooldownSeconds)
}

func TestOwnerAddressCannotBeRegistered(t *testing.T) {
	ts := newTestServer(t, false)
	aliceToken := ts.register(t, aliceAddr)

	rr := ts.request(http.MethodPost, "/api/v1/contract/fund", map[string]string{"value": "0.5ether"}, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"address":    ownerAddr,
		"passphrase": playerPassphrase,
	}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeAddressReserved, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"address":    ownerAddr,
		"passphrase": playerPassphrase,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/contract/withdraw", nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/contract/balance", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0.5", decode[response.Balance](t, rr).Ether)
}

func TestRegisterTwice(t *testing.T) {
	ts := newTestServer(t, false)
	ts.register(t, aliceAddr)

	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"address":    aliceAddr,
		"passphrase": "another-pass",
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeAddressRegistered, errorCode(t, rr))

	ts.login(t, aliceAddr, playerPassphrase)
}

func TestFundContract(t *testing.T) {
	ts := newTestServer(t, false)
	token := ts.register(t, bobAddr)

	rr := ts.request(http.MethodPost, "/api/v1/contract/fund", map[string]string{"value": "0.5ether"}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/wallets/"+bobAddr, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0.5", decode[response.Balance](t, rr).Ether)

	rr = ts.request(http.MethodPost, "/api/v1/contract/fund", map[string]string{"value": "2ether"}, token)
	assert.Equal(t, http.StatusPaymentRequired, rr.Code)
	assert.Equal(t, apierr.CodeInsufficientFunds, errorCode(t, rr))
}

func TestFaucet(t *testing.T) {
	disabled := newTestServer(t, false)
	rr := disabled.request(http.MethodPost, "/api/v1/wallets/"+bobAddr+"/faucet", map[string]string{"amount": "1ether"}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeFaucetDisabled, errorCode(t, rr))

	enabled := newTestServer(t, true)
	rr = enabled.request(http.MethodPost, "/api/v1/wallets/"+bobAddr+"/faucet", map[string]string{"amount": "1ether"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = enabled.request(http.MethodGet, "/api/v1/wallets/"+bobAddr, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2", decode[response.Balance](t, rr).Ether)

	rr = enabled.request(http.MethodGet, "/api/v1/wallets/not-an-address", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t, false)
	ts.stakedPlayer(t, aliceAddr, "vasyan", 1839)
	token := ts.waitCooldown(t, aliceAddr)

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL+"/api/v1/events/stream?identity="+aliceAddr, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}
	readUntil("event: connected")

	rr := ts.request(http.MethodPost, "/api/v1/account/claim", map[string]int64{"new_rating": 1849}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "event: "+string(model.EventBalanceChanged), readUntil("event: "))
	data := strings.TrimPrefix(readUntil("data: "), "data: ")
	assert.Contains(t, data, aliceAddr)
}
