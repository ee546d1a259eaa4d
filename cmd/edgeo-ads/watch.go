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
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/ads/ads"
	"github.com/edgeo/drivers/ads/internal/sim"
)

var (
	watchName          string
	watchType          string
	watchStringSize    int
	watchCheckInterval time.Duration
	watchSimStep       time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a PLC variable through device notifications",
	Long: `Watch registers an on-change device notification and prints every value.

The connection is probed every --check-interval; on loss the client reconnects
with backoff and registers the notification again.

Examples:
  # Watch a REAL
  edgeo-ads watch -n MAIN.fTemperature -T real

  # Let the simulated controller change the value every 500ms
  edgeo-ads watch -n MAIN.nCounter -T dint --sim-step 500ms`,

	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchName, "name", "n", "", "Variable name")
	watchCmd.Flags().StringVarP(&watchType, "type", "T", "", "Variable type")
	watchCmd.Flags().IntVar(&watchStringSize, "string-size", ads.DefaultStringSize, "Buffer size of string variables")
	watchCmd.Flags().DurationVar(&watchCheckInterval, "check-interval", 10*time.Second, "Connection check interval")
	watchCmd.Flags().DurationVar(&watchSimStep, "sim-step", 0, "Change the variable on the simulated controller at this interval (0 = never)")

	watchCmd.MarkFlagRequired("name")
	watchCmd.MarkFlagRequired("type")
}

func runWatch(cmd *cobra.Command, args []string) error {
	tag, err := parseType(watchType)
	if err != nil {
		return err
	}

	s, err := createSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, viper.GetDuration("timeout"))
	err = s.connect(connectCtx)
	connectCancel()
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nStopping watch...")
		cancel()
	}()

	f := NewFormatter(viper.GetString("output"))
	s.manager.AddConnectionObserver(func(connected bool) {
		if connected {
			fmt.Fprintln(os.Stderr, "Connection restored")
		} else {
			fmt.Fprintln(os.Stderr, "Connection lost, reconnecting...")
		}
	})

	var last any
	first := true
	handler := func(name string, value any) {
		changed := first || formatValue(value) != formatValue(last)
		first = false
		last = value
		if err := f.PrintWatch(VariableValue{
			Time:     time.Now(),
			Variable: name,
			Type:     tag.String(),
			Value:    value,
			Changed:  changed,
		}); err != nil {
			logger.Error("output failed", slog.String("error", err.Error()))
		}
	}

	fmt.Printf("Watching %s (%s) on %s\n", watchName, tag, s.manager.Config())
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ok, err := s.manager.SubscribeAndWait(ctx, watchName, tag, handler, ads.WithBufferSize(watchStringSize))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", watchName, err)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "No initial value for %s yet\n", watchName)
	}

	if watchSimStep > 0 {
		go stepVariable(ctx, s.controller, watchName, tag, watchSimStep)
	}

	s.manager.Monitor(ctx, watchCheckInterval)
	return nil
}

// stepVariable changes a variable on the simulated controller until ctx is done
func stepVariable(ctx context.Context, c *sim.Controller, name string, tag ads.TypeTag, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for n := int64(1); ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var value any
		switch tag {
		case ads.TypeBool:
			value = n%2 == 1
		case ads.TypeReal, ads.TypeLReal:
			value = float64(n) / 10
		case ads.TypeString:
			value = fmt.Sprintf("step %d", n)
		default:
			value = n % 100
		}
		if err := c.Set(name, tag, value); err != nil {
			logger.Warn("sim step failed", slog.String("variable", name), slog.String("error", err.Error()))
			return
		}
	}
}
