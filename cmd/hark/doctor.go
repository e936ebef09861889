package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/ollama/ollama/api"
	"github.com/spf13/cobra"
)

// requiredBinaries are the tools hark shells out to.
var requiredBinaries = []string{
	"whisper-cli",
	"sox",
	"cliclick",
	"osascript",
	"screencapture",
	"sips",
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that required tools and services are available",
	Run: func(cmd *cobra.Command, args []string) {
		failed := 0

		for _, bin := range requiredBinaries {
			if err := checkBinary(bin); err != nil {
				printStatus("✗", err.Error(), color.FgRed)
				failed++
			} else {
				printStatus("✓", fmt.Sprintf("%s found", bin), color.FgGreen)
			}
		}

		if err := checkOllama(); err != nil {
			printStatus("✗", fmt.Sprintf("Ollama server unreachable: %v", err), color.FgRed)
			failed++
		} else {
			printStatus("✓", "Ollama server reachable", color.FgGreen)
		}

		if failed > 0 {
			fmt.Printf("\n%d problem(s) found\n", failed)
			os.Exit(1)
		}
		fmt.Println("\nAll checks passed")
	},
}

// checkOllama pings the Ollama server from the environment (OLLAMA_HOST).
func checkOllama() error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.Heartbeat(ctx)
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
