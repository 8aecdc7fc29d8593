package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sht3x-go/bus"
	"sht3x-go/services/envsense"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sampling service and log everything it publishes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serviceConfig(cmd)
		if err != nil {
			return err
		}
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		mb := bus.NewBus(8)
		mon := mb.NewConnection("watch")
		sub := mon.Subscribe(bus.T("sht3x", cfg.ID, bus.MultiLevel))
		defer mon.Disconnect()

		svc := envsense.New(dev, cfg)
		done := make(chan struct{})
		go func() {
			defer close(done)
			svc.Run(ctx, mb.NewConnection("envsense"))
		}()
		logger.LogAttrs(nil, slog.LevelInfo, "Watching sensor",
			slog.String("id", cfg.ID),
			slog.Int("interval_ms", cfg.IntervalMs),
			slog.String("mode", cfg.PowerMode),
		)
		for {
			select {
			case <-done:
				return nil
			case m := <-sub.Channel():
				logger.LogAttrs(nil, slog.LevelInfo, "Message",
					slog.String("topic", m.Topic.String()),
					slog.Any("payload", m.Payload),
					slog.Bool("retained", m.Retained),
				)
			}
		}
	},
}

// serviceConfig loads --service-config when given, which then also selects
// the bus and address. Otherwise it derives the config from the global flags.
func serviceConfig(cmd *cobra.Command) (envsense.Config, error) {
	path, _ := cmd.Flags().GetString("service-config")
	if path != "" {
		cfg, err := envsense.Load(path)
		if err != nil {
			return envsense.Config{}, err
		}
		viper.Set("bus", cfg.Bus)
		viper.Set("address", cfg.Address)
		viper.Set("mode", cfg.PowerMode)
		return cfg, nil
	}
	dc, err := deviceConfig()
	if err != nil {
		return envsense.Config{}, err
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	cfg := envsense.Defaults()
	cfg.Bus = viper.GetString("bus")
	cfg.Address = dc.Address
	cfg.PowerMode = dc.Mode.String()
	cfg.IntervalMs = int(interval.Milliseconds())
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return envsense.Config{}, fmt.Errorf("service config: %w", err)
	}
	return cfg, nil
}

func init() {
	watchCmd.Flags().String("service-config", "", "envsense YAML config; overrides the global flags")
	watchCmd.Flags().Duration("interval", envsense.DefaultIntervalMs*time.Millisecond, "sampling interval")
	rootCmd.AddCommand(watchCmd)
}
