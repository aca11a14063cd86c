package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/roomhub/internal/admin"
	appcfg "github.com/park285/roomhub/internal/config"
	"github.com/park285/roomhub/internal/obslog"
	"github.com/park285/roomhub/internal/room"
	"github.com/park285/roomhub/internal/server"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	dir := room.NewDirectory()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(cfg, dir).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		obslog.L().Info("listen", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.L().Fatal("listen_error", zap.Error(err))
		}
	}()

	var adminSrv *fasthttp.Server
	if cfg.AdminToken != "" {
		adminSrv = &fasthttp.Server{
			Handler:     admin.New(cfg.AdminToken, dir).Handler(),
			ReadTimeout: 10 * time.Second,
		}
		go func() {
			obslog.L().Info("admin_listen", zap.String("addr", cfg.AdminAddr))
			if err := adminSrv.ListenAndServe(cfg.AdminAddr); err != nil {
				obslog.L().Error("admin_listen_error", zap.Error(err))
			}
		}()
	} else {
		obslog.L().Warn("admin_disabled", zap.String("reason", "no admin token configured"))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if adminSrv != nil {
		_ = adminSrv.ShutdownWithContext(ctx)
	}
}
