package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kanzure/webcasa/internal/api"
	"github.com/kanzure/webcasa/internal/app"
	"github.com/kanzure/webcasa/internal/config"
	"github.com/kanzure/webcasa/internal/handler"
	"github.com/kanzure/webcasa/internal/kv"
	"github.com/kanzure/webcasa/internal/model"
	"github.com/kanzure/webcasa/internal/progress"
	"github.com/kanzure/webcasa/internal/webcash"
)

// claimingBackend accepts every insert and refuses everything else.
type claimingBackend struct{}

func (claimingBackend) Check(_ context.Context, _ *webcash.WalletDocument, report progress.Reporter) error {
	report.Report("Nothing to check")
	return nil
}

func (claimingBackend) Recover(context.Context, *webcash.WalletDocument, uint64, progress.Reporter) error {
	return nil
}

func (claimingBackend) Insert(_ context.Context, doc *webcash.WalletDocument, raw, _ string) (string, error) {
	doc.Webcash = append(doc.Webcash, raw)
	return raw, nil
}

func (claimingBackend) Pay(_ context.Context, _ *webcash.WalletDocument, amount, _ string) (string, error) {
	return "e" + amount + ":secret:00aa", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	require.NoError(t, config.Init())

	gate := &handler.ConfirmGate{}
	orch, err := app.New(app.Options{
		Slots:   kv.NewMemoryStore(),
		Backend: claimingBackend{},
		Confirm: gate,
		Log:     zap.NewNop().Sugar(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.SetupRouter(orch, gate))
	t.Cleanup(srv.Close)
	return srv, orch
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStatusEndpoint(t *testing.T) {
	srv, orch := newTestServer(t)

	resp, err := http.Get(srv.URL + "/wallet/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status := decode[model.StatusResponse](t, resp)
	assert.False(t, status.Locked)
	assert.False(t, status.Busy)
	assert.Equal(t, app.ViewTransfers, status.View)
	assert.Equal(t, "0.00000000", status.Balance)
	assert.Contains(t, status.MasterSecret, "...")
	assert.NotContains(t, status.MasterSecret, orch.Wallet().MasterSecret)
}

func TestStatusMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/wallet/status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCreateWalletConfirmFlow(t *testing.T) {
	srv, orch := newTestServer(t)
	before := orch.Wallet().MasterSecret

	// First attempt without confirm: 409 with the prompt, nothing changed.
	resp := postJSON(t, srv.URL+"/wallet/create", model.CreateWalletRequest{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	confirm := decode[model.ConfirmResponse](t, resp)
	assert.True(t, confirm.ConfirmationRequired)
	assert.Contains(t, confirm.Prompt, "This will DELETE your current wallet")
	assert.Equal(t, before, orch.Wallet().MasterSecret)

	// Confirmed attempt proceeds.
	resp = postJSON(t, srv.URL+"/wallet/create", model.CreateWalletRequest{Confirm: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decode[model.AckResponse](t, resp)
	assert.True(t, ack.Success)
	assert.NotEqual(t, before, orch.Wallet().MasterSecret)
}

func TestUploadWalletConfirmQueryParam(t *testing.T) {
	srv, orch := newTestServer(t)
	doc := webcash.NewDocument()
	data, err := doc.Serialize()
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/wallet/upload", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/wallet/upload?confirm=true", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, doc.MasterSecret, orch.Wallet().MasterSecret)
}

func TestUnlockWallet(t *testing.T) {
	srv, orch := newTestServer(t)

	resp := postJSON(t, srv.URL+"/wallet/password", model.PasswordRequest{Password: "pw"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, orch.Config().Encrypted)

	// Empty password is rejected outright.
	resp = postJSON(t, srv.URL+"/wallet/password", model.PasswordRequest{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/wallet/unlock", model.PasswordRequest{Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errResp := decode[model.ErrorResponse](t, resp)
	assert.Equal(t, "incorrect password", errResp.Error)

	resp = postJSON(t, srv.URL+"/wallet/unlock", model.PasswordRequest{Password: "pw"})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReceiveAndSecrets(t *testing.T) {
	srv, _ := newTestServer(t)
	raw := "e4.00000000:secret:beef00"

	resp := postJSON(t, srv.URL+"/wallet/receive", model.ReceiveRequest{Webcash: raw, Memo: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[app.ReceiveResult](t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, raw, result.Webcash)

	resp, err := http.Get(srv.URL + "/wallet/secrets")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	secrets := decode[[]string](t, resp)
	assert.Equal(t, []string{raw}, secrets)
}

func TestSendAndQR(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/wallet/send", model.SendRequest{Amount: "1.5", Memo: "m"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[app.SendResult](t, resp)
	assert.Equal(t, "e1.5:secret:00aa", result.Webcash)

	// QR of the last sent secret.
	resp, err := http.Get(srv.URL + "/wallet/receive-qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestReceiveQRRequiresWebcash(t *testing.T) {
	srv, _ := newTestServer(t)

	// Nothing sent yet and no ?webcash= parameter.
	resp, err := http.Get(srv.URL + "/wallet/receive-qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/wallet/receive-qr?webcash=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/wallet/check", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[app.WorkflowResult](t, resp)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Session)
	assert.NotEmpty(t, result.Lines)

	// The result stays available afterwards.
	resp, err = http.Get(srv.URL + "/wallet/check/last")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	last := decode[app.WorkflowResult](t, resp)
	assert.Equal(t, result.Session, last.Session)
}

func TestRecoverEndpointConfirmFlow(t *testing.T) {
	srv, orch := newTestServer(t)
	other := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

	resp := postJSON(t, srv.URL+"/wallet/recover", model.RecoverRequest{MasterSecret: other})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	confirm := decode[model.ConfirmResponse](t, resp)
	assert.True(t, confirm.ConfirmationRequired)

	resp = postJSON(t, srv.URL+"/wallet/recover", model.RecoverRequest{MasterSecret: other, Confirm: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[app.WorkflowResult](t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, other, orch.Wallet().MasterSecret)
}

func TestChangeViewEndpoint(t *testing.T) {
	srv, orch := newTestServer(t)

	resp := postJSON(t, srv.URL+"/wallet/view", model.ViewRequest{View: app.ViewHistory})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, app.ViewHistory, orch.View())

	resp = postJSON(t, srv.URL+"/wallet/view", model.ViewRequest{View: "bogus"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadEndpoint(t *testing.T) {
	srv, orch := newTestServer(t)

	resp, err := http.Get(srv.URL + "/wallet/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), app.DownloadName)

	doc := decode[webcash.WalletDocument](t, resp)
	assert.Equal(t, orch.Wallet().MasterSecret, doc.MasterSecret)
}
