// Command duelbot plays a scripted duel against a running relay: two bots
// connect, one creates a room, the other joins, and they trade kills for a
// number of rounds while every relayed event is checked.
//
//	duelbot --url ws://localhost:3000/ws --rounds 5 --damage 34
//
// It exits non-zero on the first unexpected event.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "duelbot",
		Usage: "smoke-test a relay with two scripted players",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:3000/ws", Usage: "relay WebSocket endpoint"},
			&cli.IntFlag{Name: "rounds", Value: 3, Usage: "kills to trade"},
			&cli.FloatFlag{Name: "damage", Value: 34, Usage: "damage per hit"},
			&cli.BoolFlag{Name: "headshot", Usage: "report every hit as a headshot"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "overall time limit"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)

			opts := Options{
				URL:      cmd.String("url"),
				Rounds:   int(cmd.Int("rounds")),
				Damage:   cmd.Float("damage"),
				Headshot: cmd.Bool("headshot"),
				Timeout:  cmd.Duration("timeout"),
			}
			log.Info().Str("url", opts.URL).Int("rounds", opts.Rounds).Msg("Starting duel")

			report, err := RunDuel(ctx, opts)
			if err != nil {
				return err
			}
			log.Info().
				Str("room", report.RoomID).
				Int("rounds", report.Rounds).
				Int("hits", report.Hits).
				Int("kills", report.Kills).
				Dur("duration", report.Duration).
				Msg("Duel finished")
			return nil
		},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Duel failed")
	}
}
