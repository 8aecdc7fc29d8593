package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sht3x-go/drivers/sht3x"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Read or program the alert thresholds",
}

var alertGetCmd = &cobra.Command{
	Use:   "get [threshold...]",
	Short: "Show thresholds (high_set, high_clear, low_clear, low_set; default all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		thresholds, err := parseThresholds(args)
		if err != nil {
			return err
		}
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		for _, t := range thresholds {
			l, err := dev.AlertThreshold(t)
			if err != nil {
				return fmt.Errorf("alert %s: %w", t, err)
			}
			printAlert(cmd.OutOrStdout(), t, l)
		}
		return nil
	},
}

var alertSetCmd = &cobra.Command{
	Use:   "set threshold",
	Short: "Program one threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, ok := sht3x.ParseAlertThreshold(args[0])
		if !ok {
			return fmt.Errorf("unknown threshold %q", args[0])
		}
		rh, _ := cmd.Flags().GetFloat64("rh")
		celsius, _ := cmd.Flags().GetFloat64("temp")
		l, err := alertLimit(rh, celsius)
		if err != nil {
			return err
		}
		dev, b, err := openDevice()
		if err != nil {
			return err
		}
		defer b.Close()
		if err := dev.SetAlertThreshold(t, l); err != nil {
			return fmt.Errorf("alert %s: %w", t, err)
		}
		stored, err := dev.AlertThreshold(t)
		if err != nil {
			return fmt.Errorf("alert %s: read back: %w", t, err)
		}
		printAlert(cmd.OutOrStdout(), t, stored)
		return nil
	},
}

func parseThresholds(args []string) ([]sht3x.AlertThreshold, error) {
	if len(args) == 0 {
		return sht3x.AlertThresholds[:], nil
	}
	out := make([]sht3x.AlertThreshold, 0, len(args))
	for _, a := range args {
		t, ok := sht3x.ParseAlertThreshold(a)
		if !ok {
			return nil, fmt.Errorf("unknown threshold %q", a)
		}
		out = append(out, t)
	}
	return out, nil
}

func init() {
	alertSetCmd.Flags().Float64("rh", 80, "relative humidity limit in %")
	alertSetCmd.Flags().Float64("temp", 60, "temperature limit in °C")
	alertCmd.AddCommand(alertGetCmd, alertSetCmd)
	rootCmd.AddCommand(alertCmd)
}
