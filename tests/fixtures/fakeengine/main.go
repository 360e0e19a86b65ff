package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/treetagger/internal/testutils"
)

// fakeengine speaks the engine line protocol with the reference lexicon.
// Behaviour is scripted through FAKEENGINE_* environment variables.
func main() {
	e := testutils.NewEngine()
	e.FailStart = os.Getenv("FAKEENGINE_FAIL_START")
	e.CrashOn = os.Getenv("FAKEENGINE_CRASH_ON")
	e.HangOn = os.Getenv("FAKEENGINE_HANG_ON")
	e.Linger = os.Getenv("FAKEENGINE_LINGER") != ""

	if len(os.Args) > 1 {
		e.Banner = []string{fmt.Sprintf("reading parameters from %s ...", os.Args[len(os.Args)-1])}
	}

	os.Exit(e.Run(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}
