// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vrflottery/lottery/pkg/account"
	"github.com/vrflottery/lottery/pkg/deployer"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/network"
	"github.com/vrflottery/lottery/pkg/node"
	"github.com/vrflottery/lottery/pkg/sctx"
	"github.com/vrflottery/lottery/pkg/transaction"
)

const (
	optionNameVerbosity      = "verbosity"
	optionNameNetwork        = "network"
	optionNameNetworksConfig = "networks-config"
	optionNameEndpoint       = "endpoint"
	optionNameDataDir        = "data-dir"
	optionNameBuildDir       = "build-dir"
	optionNameBlockTime      = "block-time"
	optionNameGasPrice       = "gas-price"
	optionNameGasLimit       = "gas-limit"
	optionNameMnemonic       = "mnemonic"
	optionNameEnvFile        = "env-file"
	optionNameKeystoreDir    = "keystore"
	optionNameKeystoreID     = "keystore-id"
	optionNamePassword       = "password"
)

func init() {
	cobra.EnableCommandSorting = false
}

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	cfgFile string
	homeDir string
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "lottery",
			Short:         "Deploy and drive a VRF lottery",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig()
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	// Find home directory.
	if err := c.setHomeDir(); err != nil {
		return nil, err
	}

	c.initGlobalFlags()

	c.initDeployCmd()
	c.initStartCmd()
	c.initEnterCmd()
	c.initFundCmd()
	c.initEndCmd()
	c.initFulfillCmd()
	c.initStatusCmd()
	c.initServeCmd()
	c.initVersionCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	return c.root.ExecuteContext(context.Background())
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.lottery.yaml)")
	globalFlags.String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	globalFlags.String(optionNameNetwork, "", "network name, detected from the chain id if empty")
	globalFlags.String(optionNameNetworksConfig, "networks.yaml", "networks and wallets configuration file")
	globalFlags.String(optionNameEndpoint, "", "json-rpc endpoint, the network host if empty")
	globalFlags.String(optionNameDataDir, filepath.Join(c.homeDir, ".lottery"), "data directory, in-memory state if empty")
	globalFlags.String(optionNameBuildDir, "build", "directory with the compiled contract artifacts")
	globalFlags.Duration(optionNameBlockTime, time.Second, "chain block time")
	globalFlags.String(optionNameGasPrice, "", "gas price in wei, suggested by the node if empty")
	globalFlags.Uint64(optionNameGasLimit, 0, "gas limit, estimated if 0")
	globalFlags.String(optionNameMnemonic, "", "mnemonic of the dev accounts on local networks")
	globalFlags.String(optionNameEnvFile, ".env", "dotenv file with the PRIVATE_KEY of the deploying account")
	globalFlags.String(optionNameKeystoreDir, "", "directory with encrypted keystore files")
	globalFlags.String(optionNameKeystoreID, "", "keystore account to send from instead of the default account")
	globalFlags.String(optionNamePassword, "", "password for decrypting the keystore account")
}

func (c *command) initConfig() (err error) {
	config := viper.New()
	configName := ".lottery"
	if c.cfgFile != "" {
		// Use config file from the flag.
		config.SetConfigFile(c.cfgFile)
	} else {
		// Search config in home directory with name ".lottery" (without extension).
		config.AddConfigPath(c.homeDir)
		config.SetConfigName(configName)
	}

	// Environment
	config.SetEnvPrefix("lottery")
	config.AutomaticEnv() // read in environment variables that match
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if c.homeDir != "" && c.cfgFile == "" {
		c.cfgFile = filepath.Join(c.homeDir, configName+".yaml")
	}

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	c.config = config
	return nil
}

func (c *command) setHomeDir() (err error) {
	if c.homeDir != "" {
		return
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	c.homeDir = dir
	return nil
}

// bindFlags binds the global and command flags to the configuration so
// that config file and environment values apply to them.
func (c *command) bindFlags(cmd *cobra.Command) error {
	if err := c.config.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return c.config.BindPFlags(cmd.InheritedFlags())
}

func newLogger(cmd *cobra.Command, verbosity string) (logging.Logger, error) {
	var logger logging.Logger
	switch verbosity {
	case "0", "silent":
		logger = logging.New(io.Discard, 0)
	case "1", "error":
		logger = logging.New(cmd.OutOrStdout(), logrus.ErrorLevel)
	case "2", "warn":
		logger = logging.New(cmd.OutOrStdout(), logrus.WarnLevel)
	case "3", "info":
		logger = logging.New(cmd.OutOrStdout(), logrus.InfoLevel)
	case "4", "debug":
		logger = logging.New(cmd.OutOrStdout(), logrus.DebugLevel)
	case "5", "trace":
		logger = logging.New(cmd.OutOrStdout(), logrus.TraceLevel)
	default:
		return nil, fmt.Errorf("unknown verbosity level %q", verbosity)
	}
	return logger, nil
}

// session is an open chain connection with the deployer of the sending
// account.
type session struct {
	logger   logging.Logger
	chain    *node.Chain
	sender   transaction.Service
	deployer *deployer.Deployer
}

func (s *session) Close() error {
	return s.chain.Close()
}

// openSession binds the flags of cmd, connects to the configured chain and
// selects the sending account.
func (c *command) openSession(cmd *cobra.Command) (*session, error) {
	if err := c.bindFlags(cmd); err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd, strings.ToLower(c.config.GetString(optionNameVerbosity)))
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}

	registry, err := network.LoadRegistry(c.config.GetString(optionNameNetworksConfig))
	if err != nil {
		return nil, fmt.Errorf("networks config: %w", err)
	}

	fromKey, err := account.PrivateKeyFromEnvFile(c.config.GetString(optionNameEnvFile))
	if err != nil {
		return nil, err
	}

	chain, err := node.InitChain(cmd.Context(), logger, node.Options{
		Endpoint:  c.config.GetString(optionNameEndpoint),
		Network:   c.config.GetString(optionNameNetwork),
		Registry:  registry,
		DataDir:   c.config.GetString(optionNameDataDir),
		BuildDir:  c.config.GetString(optionNameBuildDir),
		BlockTime: c.config.GetDuration(optionNameBlockTime),
		Accounts: account.Options{
			Mnemonic:    c.config.GetString(optionNameMnemonic),
			FromKey:     fromKey,
			KeystoreDir: c.config.GetString(optionNameKeystoreDir),
		},
	})
	if err != nil {
		return nil, err
	}

	sender, err := c.sender(chain)
	if err != nil {
		chain.Close()
		return nil, err
	}

	d, err := chain.DeployerFor(sender)
	if err != nil {
		chain.Close()
		return nil, err
	}

	return &session{
		logger:   logger,
		chain:    chain,
		sender:   sender,
		deployer: d,
	}, nil
}

func (c *command) sender(chain *node.Chain) (transaction.Service, error) {
	id := c.config.GetString(optionNameKeystoreID)
	if id == "" {
		return chain.DefaultAccount()
	}
	signer, err := chain.Accounts().Load(id, c.config.GetString(optionNamePassword))
	if err != nil {
		return nil, err
	}
	return chain.Transactor(signer)
}

// transactionContext applies the configured gas settings to ctx.
func (c *command) transactionContext(ctx context.Context) (context.Context, error) {
	if v := c.config.GetString(optionNameGasPrice); v != "" {
		price, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("invalid gas price %q", v)
		}
		ctx = sctx.SetGasPrice(ctx, price)
	}
	if limit := c.config.GetUint64(optionNameGasLimit); limit > 0 {
		ctx = sctx.SetGasLimit(ctx, limit)
	}
	return ctx, nil
}
