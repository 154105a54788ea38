package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/MrSnakeDoc/jobtrail/internal/app"
	"github.com/MrSnakeDoc/jobtrail/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("jobtrail %s (commit %s, built %s, %s)\n",
			version.Version, version.Commit, version.BuildDate, version.GoVersion)
		return
	}

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ jobtrail failed to start: %v", err)
	}
}
