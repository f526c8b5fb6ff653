package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jinford/ram-engine/internal/interface/api"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// ServerStartAction はHTTPサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	cfg := appCtx.Config
	port := cfg.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	server := api.NewServer(appCtx.Container.IngestionService, appCtx.Container.SearchService, api.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		DebugEnvEndpoint: cfg.Server.DebugEnvEndpoint,
		ServiceKey:       cfg.Database.ServiceKey,
	}, appCtx.Logger())

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return serve(ctx, appCtx, httpServer)
}

// serve は ctx がキャンセルされるまでサーバを動かし、終了時にグレースフルシャットダウンする
func serve(ctx context.Context, appCtx *AppContext, httpServer *http.Server) error {
	log := appCtx.Logger()
	errCh := make(chan error, 1)

	go func() {
		log.Info("HTTPサーバを起動します", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTPサーバの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("HTTPサーバを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバの停止に失敗: %w", err)
	}
	log.Info("HTTPサーバを停止しました")
	return nil
}
