package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/huddle/internal/daemon"
	"github.com/matheus3301/huddle/internal/session"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	quietFlag := flag.Bool("quiet", false, "log to the profile log file only")
	flag.Parse()

	profile := session.Resolve(*profileFlag)
	if err := session.ValidateName(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := session.EnsureDir(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := []fx.Option{daemon.Module(daemon.Params{ProfileName: profile, Quiet: *quietFlag})}
	if *quietFlag {
		opts = append(opts, fx.NopLogger)
	}
	app := fx.New(opts...)

	app.Run()
}
