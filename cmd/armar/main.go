/*
Copyright The ORAS Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/armar-oci/armar/internal/api"
	"github.com/armar-oci/armar/internal/backend"
	"github.com/armar-oci/armar/internal/config"
	"github.com/armar-oci/armar/internal/index"
	"github.com/armar-oci/armar/internal/upload"
)

const serverPort = "8080"

func main() {
	cmd := &cobra.Command{
		Use:           "armar [config-path]",
		Short:         "OCI distribution-spec registry server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return run(cmd.Context(), path)
		},
	}

	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Error("armar exited with an error")
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	log := logrus.StandardLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	cache, err := backend.NewLocal(cfg.LocalPath())
	if err != nil {
		return errors.Wrap(err, "initialize cache backend")
	}

	var primary backend.Backend = cache
	if cfg.Storage.S3.Configured() {
		s3, err := backend.NewS3(ctx, cfg.Storage.S3)
		if err != nil {
			return errors.Wrap(err, "initialize s3 backend")
		}
		primary = s3
		log.Info("primary backend: s3")
	} else {
		log.Info("primary backend: degraded to local cache (storage.s3 not fully configured)")
	}

	idx := index.New(primary, cache)
	up := upload.New(primary, cache)
	srv := api.NewServer(idx, up, log)

	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Address(), serverPort),
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", httpServer.Addr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen and serve")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
