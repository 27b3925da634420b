// Command tally keeps track of personal finances.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/etnz/tally/cmd"
	"github.com/google/subcommands"
)

func main() {
	cfg, err := cmd.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander, cfg)

	// Exits when invoked by the shell for completion.
	cmd.Completion().Complete(name)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
