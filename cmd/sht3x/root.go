package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"sht3x-go/drivers/sht3x"
)

var (
	cfgFile string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "sht3x",
	Short:        "Read and configure a Sensirion SHT3x humidity/temperature sensor",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	logger = slog.Default()
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sht3x/config.yaml)")
	rootCmd.PersistentFlags().String("bus", "", "I2C bus name, e.g. /dev/i2c-1 (default: first bus)")
	rootCmd.PersistentFlags().Uint16("address", sht3x.AddressDefault, "sensor address, 0x44 or 0x45")
	rootCmd.PersistentFlags().String("mode", "high", "measurement repeatability: low, medium or high")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/sht3x")
		viper.AddConfigPath("$HOME/.sht3x")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("sht3x")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if viper.GetBool("verbose") {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	if err := viper.ReadInConfig(); err == nil {
		logger.LogAttrs(nil, slog.LevelInfo, "Using config file", slog.String("config", viper.ConfigFileUsed()))
	}
}

// deviceConfig builds the driver config from flags, environment and file.
func deviceConfig() (sht3x.Config, error) {
	addr := viper.GetUint16("address")
	if addr != sht3x.AddressDefault && addr != sht3x.AddressAlternate {
		return sht3x.Config{}, fmt.Errorf("address %#x: must be %#x or %#x", addr, sht3x.AddressDefault, sht3x.AddressAlternate)
	}
	mode, ok := sht3x.ParsePowerMode(viper.GetString("mode"))
	if !ok {
		return sht3x.Config{}, fmt.Errorf("unknown mode %q", viper.GetString("mode"))
	}
	return sht3x.Config{Address: addr, Mode: mode}, nil
}

// openDevice initialises periph, opens the configured bus and binds a
// driver to it. The caller closes the returned bus.
func openDevice() (*sht3x.Device, i2c.BusCloser, error) {
	cfg, err := deviceConfig()
	if err != nil {
		return nil, nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialise periph: %w", err)
	}
	name := viper.GetString("bus")
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}
	logger.LogAttrs(nil, slog.LevelDebug, "Opened bus",
		slog.String("bus", b.String()),
		slog.Int("address", int(cfg.Address)),
		slog.String("mode", cfg.Mode.String()),
	)
	return sht3x.New(b, cfg), b, nil
}
