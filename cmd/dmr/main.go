package main

import (
	"flag"
	"fmt"
	"os"

	"dmr/internal/di"
	"dmr/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the YAML config file")
	flag.StringVar(&flags.ChannelID, "channel", "", "channel ID (overrides fetcher.channelId)")
	flag.BoolVar(&flags.DebugMode, "debug", false, "enable debug console output")
	flag.Parse()

	app, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmr: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Persisted %d messages\n", app.Total)
}
