package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/skip2/go-qrcode"

	"github.com/kanzure/webcasa/internal/app"
	"github.com/kanzure/webcasa/internal/config"
	"github.com/kanzure/webcasa/internal/model"
	"github.com/kanzure/webcasa/internal/webcash"
)

// maxUploadBytes bounds uploaded wallet files.
const maxUploadBytes = 16 << 20

// WalletHandler exposes the orchestrator over HTTP.
type WalletHandler struct {
	orch *app.Orchestrator
	gate *ConfirmGate

	// destructive create/upload/recover requests are serialized so one
	// request's confirm flag cannot leak into another's prompt
	destructiveMu sync.Mutex
}

// ConfirmGate implements app.Confirmer for a request/response transport:
// the first, unconfirmed request is declined and the recorded prompt is
// returned to the caller, who repeats the request with confirm=true.
type ConfirmGate struct {
	mu     sync.Mutex
	allow  bool
	prompt string
}

// ConfirmOverwrite implements app.Confirmer.
func (g *ConfirmGate) ConfirmOverwrite(masterShort, balance string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt = fmt.Sprintf("This will DELETE your current wallet '%s' (₩ %s). Do you want to continue?",
		masterShort, balance)
	return g.allow
}

func (g *ConfirmGate) arm(allow bool) {
	g.mu.Lock()
	g.allow = allow
	g.mu.Unlock()
}

func (g *ConfirmGate) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt
}

// NewWalletHandler creates a WalletHandler over the orchestrator. The
// returned ConfirmGate must be wired as the orchestrator's Confirmer.
func NewWalletHandler(orch *app.Orchestrator, gate *ConfirmGate) *WalletHandler {
	return &WalletHandler{orch: orch, gate: gate}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

// statusFor maps orchestrator sentinel errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, app.ErrWalletLocked):
		return http.StatusLocked
	case errors.Is(err, app.ErrUnknownView):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Render handles GET /wallet/render
// @Summary      Resolve which flow to present
// @Description  Returns the single flow to show: external-receive, unlock, terms, or the selected view
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  app.Render
// @Router       /wallet/render [get]
func (h *WalletHandler) Render(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.RenderState())
}

// Status handles GET /wallet/status
// @Summary      Wallet and app state summary
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.StatusResponse
// @Router       /wallet/status [get]
func (h *WalletHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	conf := h.orch.Config()
	resp := model.StatusResponse{
		Locked:        h.orch.Wallet() == nil,
		Busy:          h.orch.Busy(),
		BusyWorkflow:  h.orch.BusyWorkflow(),
		View:          h.orch.View(),
		Downloaded:    conf.Downloaded,
		Encrypted:     conf.Encrypted,
		TermsAccepted: conf.TermsAccepted,
	}
	if doc := h.orch.Wallet(); doc != nil {
		resp.MasterSecret = webcash.Shorten(doc.MasterSecret)
		resp.Balance = doc.Balance()
	}
	respondJSON(w, http.StatusOK, resp)
}

// AcceptTerms handles POST /wallet/terms/accept
// @Summary      Accept the terms of service
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AckResponse
// @Router       /wallet/terms/accept [post]
func (h *WalletHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.orch.OnAcceptTerms(); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, model.AckResponse{Success: true})
}

// ChangeView handles POST /wallet/view
// @Summary      Switch the selected view
// @Description  Rejected with 409 while a check or recover workflow is running
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ViewRequest  true  "View name"
// @Success      200      {object}  model.AckResponse
// @Router       /wallet/view [post]
func (h *WalletHandler) ChangeView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.orch.OnChangeView(req.View); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, model.AckResponse{Success: true})
}

// runDestructive serializes a confirmation-gated operation and translates a
// declined confirmation into a 409 carrying the prompt.
func (h *WalletHandler) runDestructive(w http.ResponseWriter, confirm bool, op func() error) {
	h.destructiveMu.Lock()
	defer h.destructiveMu.Unlock()

	h.gate.arm(confirm)
	err := op()
	if errors.Is(err, app.ErrDeclined) {
		respondJSON(w, http.StatusConflict, model.ConfirmResponse{
			ConfirmationRequired: true,
			Prompt:               h.gate.lastPrompt(),
		})
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, model.AckResponse{Success: true})
}

// CreateWallet handles POST /wallet/create
// @Summary      Replace the wallet with a fresh one
// @Description  Requires confirm=true; an unconfirmed request returns the confirmation prompt and changes nothing
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateWalletRequest  true  "Confirmation"
// @Success      200      {object}  model.AckResponse
// @Failure      409      {object}  model.ConfirmResponse
// @Router       /wallet/create [post]
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	h.runDestructive(w, req.Confirm, h.orch.OnCreateWallet)
}

// UploadWallet handles POST /wallet/upload
// @Summary      Replace the wallet with an uploaded serialized one
// @Description  Body is the wallet JSON; pass ?confirm=true to acknowledge the overwrite
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        confirm  query     bool  false  "Acknowledge overwrite"
// @Success      200      {object}  model.AckResponse
// @Failure      409      {object}  model.ConfirmResponse
// @Router       /wallet/upload [post]
func (h *WalletHandler) UploadWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	confirm := r.URL.Query().Get("confirm") == "true"
	h.runDestructive(w, confirm, func() error { return h.orch.OnUploadWallet(data) })
}

// DownloadWallet handles GET /wallet/download
// @Summary      Export the wallet as default_wallet.webcash
// @Tags         wallet
// @Produce      application/octet-stream
// @Success      200
// @Router       /wallet/download [get]
func (h *WalletHandler) DownloadWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	name, contents, err := h.orch.OnDownloadWallet()
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(contents)
}

// CheckWallet handles POST /wallet/check
// @Summary      Reconcile the wallet against the server
// @Description  Runs to completion; 409 when another workflow is in progress. The result, including streamed progress lines, is returned and kept at GET /wallet/check/last
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  app.WorkflowResult
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/check [post]
func (h *WalletHandler) CheckWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.orch.OnCheckWallet(r.Context()); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.LastCheck())
}

// LastCheck handles GET /wallet/check/last
// @Summary      Last check result, streamable while a check runs
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  app.WorkflowResult
// @Router       /wallet/check/last [get]
func (h *WalletHandler) LastCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.LastCheck())
}

// RecoverWallet handles POST /wallet/recover
// @Summary      Recover a wallet from its master secret
// @Description  Recovering into a different secret requires confirm=true since it discards the current wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.RecoverRequest  true  "Recovery parameters"
// @Success      200      {object}  app.WorkflowResult
// @Failure      409      {object}  model.ConfirmResponse
// @Router       /wallet/recover [post]
func (h *WalletHandler) RecoverWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.RecoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.GapLimit == 0 {
		req.GapLimit = config.GetGapLimit()
	}

	h.destructiveMu.Lock()
	defer h.destructiveMu.Unlock()

	h.gate.arm(req.Confirm)
	err := h.orch.OnRecoverWallet(r.Context(), req.MasterSecret, req.GapLimit)
	if errors.Is(err, app.ErrDeclined) {
		respondJSON(w, http.StatusConflict, model.ConfirmResponse{
			ConfirmationRequired: true,
			Prompt:               h.gate.lastPrompt(),
		})
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.LastRecover())
}

// LastRecover handles GET /wallet/recover/last
// @Summary      Last recover result, streamable while a recovery runs
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  app.WorkflowResult
// @Router       /wallet/recover/last [get]
func (h *WalletHandler) LastRecover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.LastRecover())
}

// SetPassword handles POST /wallet/password
// @Summary      Protect the stored wallet with a password
// @Description  Saves immediately; previously downloaded exports stay plaintext
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PasswordRequest  true  "Password"
// @Success      200      {object}  model.AckResponse
// @Router       /wallet/password [post]
func (h *WalletHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, errors.New("password cannot be empty"))
		return
	}
	if err := h.orch.OnSetPassword(req.Password); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, model.AckResponse{Success: true})
}

// UnlockWallet handles POST /wallet/unlock
// @Summary      Unlock an encrypted wallet
// @Description  An incorrect password returns 401 without touching state
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PasswordRequest  true  "Password"
// @Success      200      {object}  model.AckResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /wallet/unlock [post]
func (h *WalletHandler) UnlockWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	unlocked, err := h.orch.OnUnlockWallet(req.Password)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	if !unlocked {
		respondError(w, http.StatusUnauthorized, errors.New("incorrect password"))
		return
	}
	respondJSON(w, http.StatusOK, model.AckResponse{Success: true})
}

// Receive handles POST /wallet/receive
// @Summary      Claim an incoming webcash secret
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request  body      model.ReceiveRequest  true  "Claim code and memo"
// @Success      200      {object}  app.ReceiveResult
// @Router       /wallet/receive [post]
func (h *WalletHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.ReceiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.orch.OnReceiveWebcash(r.Context(), req.Webcash, req.Memo); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.LastReceive())
}

// Send handles POST /wallet/send
// @Summary      Produce a claim code for the given amount
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Amount and memo"
// @Success      200      {object}  app.SendResult
// @Router       /wallet/send [post]
func (h *WalletHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	var req model.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.orch.OnSendAmount(r.Context(), req.Amount, req.Memo); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.LastSend())
}

// History handles GET /wallet/history
// @Summary      Wallet history log
// @Tags         wallet
// @Produce      json
// @Success      200  {array}  webcash.LogEntry
// @Router       /wallet/history [get]
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	doc := h.orch.Wallet()
	if doc == nil {
		respondError(w, http.StatusLocked, app.ErrWalletLocked)
		return
	}
	respondJSON(w, http.StatusOK, doc.Log)
}

// Secrets handles GET /wallet/secrets
// @Summary      Claim codes currently held
// @Tags         wallet
// @Produce      json
// @Success      200  {array}  string
// @Router       /wallet/secrets [get]
func (h *WalletHandler) Secrets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	doc := h.orch.Wallet()
	if doc == nil {
		respondError(w, http.StatusLocked, app.ErrWalletLocked)
		return
	}
	respondJSON(w, http.StatusOK, doc.Webcash)
}

// ReceiveQR handles GET /wallet/receive-qr
// @Summary      QR code of a claim link
// @Description  PNG QR of the claim link for the given webcash (default: the last sent secret)
// @Tags         transfers
// @Produce      image/png
// @Param        webcash  query  string  false  "Claim code"
// @Success      200
// @Router       /wallet/receive-qr [get]
func (h *WalletHandler) ReceiveQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("webcash")
	if raw == "" {
		if last := h.orch.LastSend(); last != nil && last.Webcash != "" {
			raw = last.Webcash
		}
	}
	if raw == "" {
		respondError(w, http.StatusBadRequest, errors.New("no webcash to encode: pass ?webcash= or send first"))
		return
	}
	secret, err := webcash.ParseSecret(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	link := fmt.Sprintf("%s/?receive=%s", config.GetBaseURL(), secret.Serialize())
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Errorf("failed to generate QR code: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
