// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/ads/ads"
	"github.com/edgeo/drivers/ads/internal/sim"
)

var (
	cfgFile   string
	netID     string
	amsPort   int
	ipAddress string
	timeout   time.Duration
	outputFmt string
	verbose   bool
	simFile   string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "edgeo-ads",
	Short: "An ADS client CLI for TwinCAT controllers",
	Long: `edgeo-ads is a command-line tool for talking to Beckhoff TwinCAT controllers over ADS.

It reads and writes PLC variables by name, watches variables through device
notifications and reports the controller state. The bundled backend is a
simulated controller seeded from a YAML symbol file.

Examples:
  # Read a variable
  edgeo-ads read -n MAIN.nCounter -T dint

  # Write a variable
  edgeo-ads write -n MAIN.nSpeed -T int -V 1500

  # Watch a variable for changes
  edgeo-ads watch -n MAIN.fTemperature -T real

  # Show the controller state
  edgeo-ads state --net-id 5.12.34.56.1.1`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := slog.LevelInfo
		if viper.GetBool("verbose") {
			logLevel = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.edgeo-ads.yaml)")
	rootCmd.PersistentFlags().StringVar(&netID, "net-id", "127.0.0.1.1.1", "Target AMS net id")
	rootCmd.PersistentFlags().IntVarP(&amsPort, "port", "p", ads.DefaultAMSPort, "Target AMS port")
	rootCmd.PersistentFlags().StringVar(&ipAddress, "ip", "", "Optional route IP address of the target")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format (table, json, yaml, raw)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&simFile, "sim-file", "", "YAML symbol file for the simulated controller")

	viper.BindPFlag("net_id", rootCmd.PersistentFlags().Lookup("net-id"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("ip_address", rootCmd.PersistentFlags().Lookup("ip"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("sim_file", rootCmd.PersistentFlags().Lookup("sim-file"))

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".edgeo-ads")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ADS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// targetConfig builds the manager config from flags, environment and config file
func targetConfig() ads.Config {
	return ads.Config{
		NetID:     viper.GetString("net_id"),
		Port:      viper.GetInt("port"),
		IPAddress: viper.GetString("ip_address"),
	}
}

// simVariables returns the symbol table of the simulated controller. A seed
// file wins over a "variables" list in the config file.
func simVariables() ([]sim.Variable, error) {
	if path := viper.GetString("sim_file"); path != "" {
		return sim.LoadFile(path)
	}
	if viper.IsSet("variables") {
		var vars []sim.Variable
		if err := viper.UnmarshalKey("variables", &vars); err != nil {
			return nil, fmt.Errorf("config variables: %w", err)
		}
		return vars, nil
	}
	return sim.DefaultVariables(), nil
}

// session bundles a manager with its backend
type session struct {
	manager    *ads.Manager
	controller *sim.Controller
}

// createSession creates a manager over the simulated controller
func createSession() (*session, error) {
	vars, err := simVariables()
	if err != nil {
		return nil, err
	}

	controller := sim.New(sim.WithLogger(logger))
	if err := controller.Seed(vars); err != nil {
		controller.Stop()
		return nil, err
	}

	manager, err := ads.NewManager(targetConfig(), controller,
		ads.WithTimeout(viper.GetDuration("timeout")),
		ads.WithLogger(logger),
	)
	if err != nil {
		controller.Stop()
		return nil, err
	}

	return &session{manager: manager, controller: controller}, nil
}

// connect opens the session and, if that fails, probes once more before
// giving up
func (s *session) connect(ctx context.Context) error {
	openErr := s.manager.Open(ctx)
	if openErr == nil {
		return nil
	}
	if s.manager.CheckConnection(ctx) {
		return nil
	}
	return fmt.Errorf("connect to %s: %w", s.manager.Config(), openErr)
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	if err := s.manager.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", slog.String("error", err.Error()))
	}
	s.controller.Stop()
}

// parseType parses the -T flag
func parseType(s string) (ads.TypeTag, error) {
	tag, ok := ads.ParseTypeTag(s)
	if !ok {
		return 0, fmt.Errorf("unknown type %q", s)
	}
	return tag, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("edgeo-ads version 1.0.0")
	},
}
