// Command sweeper advances bookings whose dates have come: APPROVED to
// ACTIVE on the start date and ACTIVE to COMPLETED on the end date.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
