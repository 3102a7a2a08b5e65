// webcasad serves a local webcash wallet over HTTP: encrypted-at-rest
// persistence, and the action endpoints the wallet UI drives.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kanzure/webcasa/internal/api"
	"github.com/kanzure/webcasa/internal/app"
	"github.com/kanzure/webcasa/internal/config"
	"github.com/kanzure/webcasa/internal/handler"
	"github.com/kanzure/webcasa/internal/kv"
	"golang.org/x/term"
)

func configureZap(logPath string) (*zap.SugaredLogger, func()) {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.RFC3339TimeEncoder
	fileEncoder := zapcore.NewJSONEncoder(pe)
	consoleEncoder := zapcore.NewConsoleEncoder(pe)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		panic(err)
	}
	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), zap.DebugLevel),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(colorable.NewColorableStdout()), zap.InfoLevel),
	)
	return zap.New(core).Sugar(), func() { logFile.Close() }
}

func main() {
	if err := config.Init(); err != nil {
		panic(err)
	}

	logger, logCleanup := configureZap(config.GetLogFile())
	defer logCleanup()

	slots, err := kv.OpenSQLite(config.GetDataPath())
	if err != nil {
		logger.Fatalw("failed to open slot database", "path", config.GetDataPath(), "error", err)
	}
	defer slots.Close()

	gate := &handler.ConfirmGate{}
	orch, err := app.New(app.Options{
		Slots:   slots,
		Backend: backend(logger),
		Confirm: gate,
		Source:  app.NewLinkSource(config.GetReceiveURL()),
		Log:     logger,
	})
	if err != nil {
		logger.Fatalw("failed to start wallet orchestrator", "error", err)
	}

	// Encrypted wallet: offer an interactive unlock before serving, so the
	// common single-user case never needs the unlock endpoint.
	if orch.Config().Encrypted && orch.Wallet() == nil && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := config.PromptForPassword()
		if err != nil {
			logger.Warnw("skipping interactive unlock", "error", err)
		} else if ok, err := orch.OnUnlockWallet(password); err != nil {
			logger.Fatalw("failed to unlock wallet", "error", err)
		} else if !ok {
			logger.Warn("incorrect password; wallet stays locked, unlock via POST /wallet/unlock")
		}
	}

	server := &http.Server{
		Addr:    ":" + config.GetPort(),
		Handler: api.SetupRouter(orch, gate),
	}

	go func() {
		logger.Infow("webcasad listening", "port", config.GetPort(), "base_url", config.GetBaseURL())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Unload guard: an in-flight check or recover cannot be cancelled, so
	// give it a chance to finish before tearing the process down.
	if orch.Busy() {
		logger.Warnw("a wallet workflow is still in progress, waiting before shutdown",
			"workflow", orch.BusyWorkflow())
	}
	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := orch.WaitIdle(waitCtx); err != nil {
		logger.Warn("shutting down with a workflow still in flight; latest progress may be unsaved")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("forced server shutdown", "error", err)
	}
	logger.Info("webcasad stopped")
}
