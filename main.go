package main

import (
	"os"

	"github.com/aiomayo/portwatch/cmd"
	"github.com/charmbracelet/log"
)

// Stamped at release time:
//
//	go build -ldflags "-X main.version=v1.2.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%FT%TZ)"
//
// Left empty, they are filled from the module build info.
var (
	version string
	commit  string
	date    string
)

func main() {
	log.SetPrefix("portwatch")
	log.SetReportTimestamp(false)

	cmd.SetVersionInfo(version, commit, date)
	os.Exit(cmd.Execute())
}
