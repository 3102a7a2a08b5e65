package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kanzure/webcasa/internal/app"
	"github.com/kanzure/webcasa/internal/handler"
)

// SetupRouter sets up router with handlers
func SetupRouter(orch *app.Orchestrator, gate *handler.ConfirmGate) http.Handler {
	walletHandler := handler.NewWalletHandler(orch, gate)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// App state
	mux.HandleFunc("/wallet/render", walletHandler.Render)
	mux.HandleFunc("/wallet/status", walletHandler.Status)
	mux.HandleFunc("/wallet/view", walletHandler.ChangeView)
	mux.HandleFunc("/wallet/terms/accept", walletHandler.AcceptTerms)

	// Wallet lifecycle
	mux.HandleFunc("/wallet/create", walletHandler.CreateWallet)
	mux.HandleFunc("/wallet/upload", walletHandler.UploadWallet)
	mux.HandleFunc("/wallet/download", walletHandler.DownloadWallet)
	mux.HandleFunc("/wallet/password", walletHandler.SetPassword)
	mux.HandleFunc("/wallet/unlock", walletHandler.UnlockWallet)

	// Busy-class workflows
	mux.HandleFunc("/wallet/check", walletHandler.CheckWallet)
	mux.HandleFunc("/wallet/check/last", walletHandler.LastCheck)
	mux.HandleFunc("/wallet/recover", walletHandler.RecoverWallet)
	mux.HandleFunc("/wallet/recover/last", walletHandler.LastRecover)

	// Transfers
	mux.HandleFunc("/wallet/receive", walletHandler.Receive)
	mux.HandleFunc("/wallet/send", walletHandler.Send)
	mux.HandleFunc("/wallet/receive-qr", walletHandler.ReceiveQR)

	// Read-only wallet data
	mux.HandleFunc("/wallet/history", walletHandler.History)
	mux.HandleFunc("/wallet/secrets", walletHandler.Secrets)

	return mux
}
