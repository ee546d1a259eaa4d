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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo/drivers/ads/ads"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Start an interactive ADS session",
	Long: `Interactive mode provides a REPL over one ADS session.

Commands:
  list                          - List variables of the simulated controller
  read <name> <type>            - Read a variable
  write <name> <type> <value>   - Write a variable
  watch <name> <type>           - Subscribe to a variable
  unwatch <name>                - Delete the subscription of a variable
  state                         - Show the controller state
  check                         - Probe the connection
  set <name> <type> <value>     - Change a variable on the controller side
  offline | online              - Drop or restore the simulated link
  metrics                       - Show session metrics
  help                          - Show help
  exit                          - Exit interactive mode

Examples:
  ads> read MAIN.nCounter dint
  ads> write MAIN.nSpeed int 1500
  ads> watch MAIN.bRunning bool`,

	RunE: runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	s, err := createSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer s.close()

	ctx := context.Background()
	connectCtx, cancel := context.WithTimeout(ctx, viper.GetDuration("timeout"))
	err = s.connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}

	s.manager.AddConnectionObserver(func(connected bool) {
		if connected {
			fmt.Println("\n[connection restored]")
		} else {
			fmt.Println("\n[connection lost]")
		}
	})

	fmt.Println("ADS Interactive Shell")
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if s.manager.Connected() {
			fmt.Print("ads> ")
		} else {
			fmt.Print("ads[offline]> ")
		}

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		command := strings.ToLower(parts[0])

		switch command {
		case "exit", "quit", "q":
			fmt.Println("Goodbye!")
			return nil

		case "help", "?":
			printInteractiveHelp()

		case "list":
			for _, name := range s.controller.Symbols() {
				fmt.Printf("  %s\n", name)
			}

		case "read":
			if len(parts) < 3 {
				fmt.Println("Usage: read <name> <type>")
				continue
			}
			runInteractiveRead(ctx, s, parts[1], parts[2])

		case "write":
			if len(parts) < 4 {
				fmt.Println("Usage: write <name> <type> <value>")
				continue
			}
			runInteractiveWrite(ctx, s, parts[1], parts[2], strings.Join(parts[3:], " "))

		case "watch":
			if len(parts) < 3 {
				fmt.Println("Usage: watch <name> <type>")
				continue
			}
			runInteractiveWatch(ctx, s, parts[1], parts[2])

		case "unwatch":
			if len(parts) < 2 {
				fmt.Println("Usage: unwatch <name>")
				continue
			}
			if err := s.manager.Unsubscribe(ctx, parts[1]); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Stopped watching %s\n", parts[1])

		case "state":
			st, err := s.manager.ReadState(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("State: %s\n", st)

		case "check":
			fmt.Printf("Connected: %v\n", s.manager.CheckConnection(ctx))

		case "set":
			if len(parts) < 4 {
				fmt.Println("Usage: set <name> <type> <value>")
				continue
			}
			runInteractiveSet(s, parts[1], parts[2], strings.Join(parts[3:], " "))

		case "offline":
			s.controller.SetOffline(true)
			fmt.Println("Simulated link down")

		case "online":
			s.controller.SetOffline(false)
			fmt.Println("Simulated link up")

		case "metrics":
			runInteractiveMetrics(s.manager)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", command)
		}
	}

	return nil
}

func printInteractiveHelp() {
	fmt.Println(`
Available commands:
  list                          List variables of the simulated controller
  read <name> <type>            Read a variable
  write <name> <type> <value>   Write a variable
  watch <name> <type>           Subscribe to on-change notifications
  unwatch <name>                Delete the subscription of a variable
  state                         Show the controller state
  check                         Probe the connection now
  set <name> <type> <value>     Change a variable on the controller side
  offline | online              Drop or restore the simulated link
  metrics                       Show session metrics
  help                          Show this help message
  exit                          Exit interactive mode

Types: bool byte int uint sint usint dint udint word dword real lreal
       string time date dt tod`)
}

func runInteractiveRead(ctx context.Context, s *session, name, typ string) {
	tag, err := parseType(typ)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	readCtx, cancel := context.WithTimeout(ctx, viper.GetDuration("timeout"))
	defer cancel()

	value, err := s.manager.ReadByName(readCtx, name, tag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%s = %s\n", name, formatValue(value))
}

func runInteractiveWrite(ctx context.Context, s *session, name, typ, valStr string) {
	tag, err := parseType(typ)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	value, err := parseValue(tag, valStr)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, viper.GetDuration("timeout"))
	defer cancel()

	if err := s.manager.WriteByName(writeCtx, name, value, tag); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: %s = %s\n", name, formatValue(value))
}

func runInteractiveWatch(ctx context.Context, s *session, name, typ string) {
	tag, err := parseType(typ)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	err = s.manager.Subscribe(ctx, name, tag, func(name string, value any) {
		fmt.Printf("\n[%s] %s = %s\n", time.Now().Format("15:04:05.000"), name, formatValue(value))
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Watching %s\n", name)
}

func runInteractiveSet(s *session, name, typ, valStr string) {
	tag, err := parseType(typ)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	value, err := parseValue(tag, valStr)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := s.controller.Set(name, tag, value); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Controller: %s = %s\n", name, formatValue(value))
}

func runInteractiveMetrics(m *ads.Manager) {
	snap := m.Metrics().Snapshot()

	fmt.Println("\nSession Metrics:")
	fmt.Printf("  Uptime:                 %s\n", snap.Uptime.Round(time.Second))
	fmt.Printf("  Session ID:             %s\n", m.SessionID())
	fmt.Printf("  Connected:              %v\n", m.Connected())
	fmt.Printf("  Retry Count:            %d\n", m.RetryCount())
	fmt.Printf("  Reconnects:             %d\n", snap.Reconnects)
	fmt.Printf("  Disconnects:            %d\n", snap.Disconnects)
	fmt.Printf("  Reads (failed):         %d (%d)\n", snap.Reads, snap.ReadsFailed)
	fmt.Printf("  Writes (failed):        %d (%d)\n", snap.Writes, snap.WritesFailed)
	fmt.Printf("  Rejected Offline:       %d\n", snap.RejectedOffline)
	fmt.Printf("  Active Subscriptions:   %d\n", snap.ActiveSubscriptions)
	fmt.Printf("  Notifications:          %d\n", snap.NotificationsReceived)
	fmt.Printf("  Notifications Dropped:  %d\n", snap.NotificationsDropped)
	fmt.Printf("  Decode Warnings:        %d\n", snap.DecodeWarnings)

	if snap.LatencyStats.Count > 0 {
		fmt.Printf("  Avg Latency:            %s\n", snap.LatencyStats.Avg.Round(time.Microsecond))
		fmt.Printf("  Min Latency:            %s\n", snap.LatencyStats.Min.Round(time.Microsecond))
		fmt.Printf("  Max Latency:            %s\n", snap.LatencyStats.Max.Round(time.Microsecond))
	}
	fmt.Println()
}
