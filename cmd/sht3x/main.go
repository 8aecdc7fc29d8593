// Command sht3x talks to an SHT3x sensor on a Linux I2C bus.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
