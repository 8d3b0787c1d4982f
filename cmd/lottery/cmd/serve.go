// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vrflottery/lottery/pkg/api"
	m "github.com/vrflottery/lottery/pkg/metrics"
)

const (
	optionNameAPIAddr      = "api-addr"
	optionNameAPIRateLimit = "api-rate-limit"
	optionNameAPIRateBurst = "api-rate-burst"

	shutdownTimeout = 15 * time.Second
)

func (c *command) initServeCmd() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lottery state and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := s.deployer.Lottery(cmd.Context())
			if err != nil {
				return err
			}

			apiService := api.New(api.Options{
				Lottery:   l,
				Network:   s.chain.Network().Name,
				Logger:    s.logger,
				RateLimit: c.config.GetDuration(optionNameAPIRateLimit),
				RateBurst: c.config.GetInt(optionNameAPIRateBurst),
			})
			apiService.MustRegisterMetrics(l.Metrics()...)
			for _, v := range []interface{}{s.logger, s.sender} {
				if collector, ok := v.(m.Collector); ok {
					apiService.MustRegisterMetrics(collector.Metrics()...)
				}
			}

			ln, err := net.Listen("tcp", c.config.GetString(optionNameAPIAddr))
			if err != nil {
				return err
			}
			errorLogWriter := s.logger.WriterLevel(logrus.ErrorLevel)
			defer errorLogWriter.Close()

			server := &http.Server{
				Handler:           apiService,
				ReadHeaderTimeout: 3 * time.Second,
				ErrorLog:          log.New(errorLogWriter, "", 0),
			}

			go func() {
				s.logger.Infof("api address: %s", ln.Addr())
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Debugf("api server: %v", err)
					s.logger.Error("unable to serve api")
				}
			}()

			// Wait for termination or interrupt signals.
			// We want to clean up things at the end.
			interruptChannel := make(chan os.Signal, 1)
			signal.Notify(interruptChannel, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(interruptChannel)

			select {
			case sig := <-interruptChannel:
				s.logger.Debugf("received signal: %v", sig)
			case <-cmd.Context().Done():
			}
			s.logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().String(optionNameAPIAddr, ":1733", "HTTP API listen address")
	cmd.Flags().Duration(optionNameAPIRateLimit, 100*time.Millisecond, "interval at which a client regains one lottery request, 0 disables the limit")
	cmd.Flags().Int(optionNameAPIRateBurst, 20, "lottery requests a client can make at once")

	c.root.AddCommand(cmd)
}
