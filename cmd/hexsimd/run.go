package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scalliony/hexsim/internal/engine"
)

var (
	styleTick  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleBot   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func runCmd() *cobra.Command {
	var seed uint32
	var tickMs int
	var paused bool
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine, reading debug commands from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmds := make(chan engine.Command, 16)
			events := make(chan engine.Event, 256)

			eng, err := engine.New(ctx, engine.Config{
				TickDuration:    time.Duration(tickMs) * time.Millisecond,
				TerrainSeed:     seed,
				InitialPaused:   paused,
				SandboxCacheDir: cacheDir,
				Log:             slog.Default(),
			}, cmds, events)
			if err != nil {
				return fmt.Errorf("start engine: %w", err)
			}
			defer eng.Close(ctx)

			go readCommands(ctx, cmds)
			go printEvents(events)

			log.Info().Uint32("seed", seed).Int("tick_ms", tickMs).Msg("engine started")
			return eng.Run(ctx)
		},
	}

	cmd.Flags().Uint32Var(&seed, "seed", 42, "terrain generator seed")
	cmd.Flags().IntVar(&tickMs, "tick-ms", 1000, "tick duration in milliseconds")
	cmd.Flags().BoolVar(&paused, "paused", false, "start in the Paused run-state")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "wazero compilation cache directory")
	return cmd
}

// readCommands parses newline-delimited debug commands from stdin and
// forwards them to the engine's command channel until ctx is cancelled or
// stdin closes. Malformed lines are logged and skipped, never fatal —
// matching the "invalid command, log and drop" disposition of the engine's
// own command handling.
func readCommands(ctx context.Context, out chan<- engine.Command) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("invalid command")
			continue
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

func parseCommand(line string) (engine.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return engine.Command{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "pause":
		return engine.ChangeState(engine.Paused), nil
	case "resume":
		return engine.ChangeState(engine.Running), nil
	case "stop":
		return engine.ChangeState(engine.Stopped), nil

	case "compile":
		if len(fields) != 2 {
			return engine.Command{}, fmt.Errorf("usage: compile <wasm-path>")
		}
		code, err := os.ReadFile(fields[1])
		if err != nil {
			return engine.Command{}, fmt.Errorf("read %s: %w", fields[1], err)
		}
		return engine.Compile(code, uuid.New(), nil), nil

	case "spawn":
		if len(fields) != 4 {
			return engine.Command{}, fmt.Errorf("usage: spawn <program-id> <q> <r>")
		}
		pid, err := parseProgramID(fields[1])
		if err != nil {
			return engine.Command{}, err
		}
		q, r, err := parseHex(fields[2], fields[3])
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Spawn(pid, hexAt(q, r), uuid.Nil), nil

	case "map":
		if len(fields) != 4 {
			return engine.Command{}, fmt.Errorf("usage: map <q> <r> <radius>")
		}
		q, r, err := parseHex(fields[1], fields[2])
		if err != nil {
			return engine.Command{}, err
		}
		rad, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			return engine.Command{}, fmt.Errorf("radius: %w", err)
		}
		return engine.Map(hexAt(q, r), int32(rad), nil), nil

	default:
		return engine.Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func printEvents(events <-chan engine.Event) {
	for ev := range events {
		switch ev.Kind {
		case engine.EvTickStart:
			fmt.Println(styleTick.Render(fmt.Sprintf("-- tick %d --", ev.Tick)))
		case engine.EvTickEnd:
			// no-op: the next TickStart line is enough of a separator
		case engine.EvBotError:
			fmt.Println(styleError.Render(fmt.Sprintf("bot %v trapped: %v", ev.Src.ID, ev.Err)))
		case engine.EvCompileError:
			fmt.Println(styleError.Render(fmt.Sprintf("compile %v failed: %v", ev.CompileID, ev.Err)))
		case engine.EvBotLog:
			fmt.Println(styleBot.Render(fmt.Sprintf("bot %v: %s", ev.Src.ID, ev.Log)))
		case engine.EvBotDie, engine.EvBotCollide:
			fmt.Println(styleWarn.Render(fmt.Sprintf("%s %v at %v", ev.Kind, ev.Src.ID, ev.To)))
		default:
			fmt.Printf("%s %+v\n", ev.Kind, ev.Src)
		}
	}
}
