package main

import (
	"log"
	"os"

	"github.com/jaffee/commandeer/pflag"

	"github.com/rdtavares/pokelake/logger"
	"github.com/rdtavares/pokelake/silver"
)

func main() {
	m := silver.NewMain()
	if err := pflag.LoadEnv(m, "POKELAKE_", nil); err != nil {
		log.Fatal(err)
	}
	m.SetLog(logger.NewStandardLogger(os.Stderr))

	// Capture any panic and log it before dying.
	defer func() {
		if r := recover(); r != nil {
			m.Log().Errorf("panic running silver job: %+v", r)
			os.Exit(1)
		}
	}()

	if m.DryRun {
		log.Printf("%+v\n", m)
		return
	}

	if err := m.Run(); err != nil {
		m.Log().Errorf("running silver job: %+v", err)
		os.Exit(1)
	}
}
