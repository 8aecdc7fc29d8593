package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"sht3x-go/drivers/sht3x"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that a sensor answers at the configured address",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		if err := dev.Probe(); err != nil {
			logger.Error("Probe failed", "address", dev.Address(), "err", err, "status", sht3x.StatusCode(err))
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "SHT3x found at 0x%02X (driver %s)\n", dev.Address(), dev.DriverVersion())
		return nil
	},
}

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Take single-shot measurements",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		interval, _ := cmd.Flags().GetDuration("interval")
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		for i := 0; count <= 0 || i < count; i++ {
			if i > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(interval):
				}
			}
			r, err := dev.MeasureBlocking()
			if err != nil {
				return fmt.Errorf("measure: %w", err)
			}
			logger.LogAttrs(nil, slog.LevelDebug, "Measured",
				slog.Int("milli_c", int(r.TemperatureMilliC)),
				slog.Int("milli_rh", int(r.HumidityMilliRH)),
				slog.Int("deci_c", int(r.DeciCelsius())),
				slog.Int("deci_rh", int(r.DeciRelHumidity())),
			)
			printReading(cmd.OutOrStdout(), r)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status register",
	RunE: func(cmd *cobra.Command, args []string) error {
		clearFlags, _ := cmd.Flags().GetBool("clear")
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		st, err := dev.Status()
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		printStatus(cmd.OutOrStdout(), st)
		if clearFlags {
			if err := dev.ClearStatus(); err != nil {
				return fmt.Errorf("clear status: %w", err)
			}
			logger.Info("Status flags cleared")
		}
		return nil
	},
}

var serialCmd = &cobra.Command{
	Use:   "serial",
	Short: "Print the electronic identification code",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		sn, err := dev.ReadSerial()
		if err != nil {
			return fmt.Errorf("serial: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serial: %08X (%d)\n", sn, sn)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Soft reset the sensor",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		return dev.SoftReset()
	},
}

var heaterCmd = &cobra.Command{
	Use:       "heater on|off",
	Short:     "Switch the on-chip heater",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var on bool
		switch args[0] {
		case "on":
			on = true
		case "off":
		default:
			return fmt.Errorf("heater: want on or off, got %q", args[0])
		}
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		return dev.SetHeater(on)
	},
}

func init() {
	measureCmd.Flags().Int("count", 1, "number of measurements, 0 for continuous")
	measureCmd.Flags().Duration("interval", 2*time.Second, "delay between measurements")
	statusCmd.Flags().Bool("clear", false, "clear the status flags after reading")
	rootCmd.AddCommand(probeCmd, measureCmd, statusCmd, serialCmd, resetCmd, heaterCmd)
}
