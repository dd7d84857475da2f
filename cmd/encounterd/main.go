// encounterd is a headless encounter client: it connects to the authority
// like a real player process and drives mission runtimes against a
// simulated world. Useful for soak-testing the authority and for demoing
// the protocol without a game platform attached.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/client"
	"StreetEncounters/internal/protocol"
	"StreetEncounters/internal/runtime"
)

func main() {
	url := flag.String("url", "ws://localhost:8090/ws", "authority ws url")
	identity := flag.String("identity", "soak-1", "player identity")
	accept := flag.String("accept", "", "encounter id to accept on connect (with -npc)")
	npc := flag.String("npc", "", "npc id for -accept")
	actDelay := flag.Duration("act-delay", 3*time.Second, "simulated time per player action")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Str("identity", *identity).Logger()

	world := newSimWorld(log, *actDelay)
	panel := &logPanel{log: log}
	c := client.New(client.Config{
		URL:      *url,
		Identity: *identity,
		Log:      log,
		Runtime:  runtime.Options{Tick: 250 * time.Millisecond},
	}, world, panel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *accept != "" && *npc != "" {
		go func() {
			// Give the dial and restore a moment before asking for work.
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			c.HandleIntent(intent(protocol.MsgAccept, protocol.AcceptPayload{NpcID: *npc, EncounterID: *accept}))
		}()
	}

	err = c.Run(ctx)
	c.Shutdown()
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("client exited")
		os.Exit(1)
	}
}

// logPanel stands in for the presentation layer.
type logPanel struct {
	log zerolog.Logger
}

func (p *logPanel) Send(action string, data any) {
	p.log.Info().Str("action", action).Interface("data", data).Msg("panel")
}
