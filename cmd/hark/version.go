package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harkvoice/hark/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hark version %s\n", version.Get())
	},
}
