package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/inertial_decoder/internal/app"
)

func main() {
	out := flag.String("out", "capture.bin", "where to write the mixed NMEA/UBX stream")
	steps := flag.Int("steps", 600, "number of sampling cycles")
	step := flag.Duration("step", 100*time.Millisecond, "time between cycles")
	rmcEvery := flag.Int("rmc-every", 10, "one RMC sentence every n cycles, 0 for none")
	corruptEvery := flag.Int("corrupt-every", 0, "corrupt every n-th cycle, 0 for none")
	flag.Parse()

	opts := app.SimulateOptions{
		Steps:        *steps,
		Step:         *step,
		RMCEvery:     *rmcEvery,
		CorruptEvery: *corruptEvery,
	}
	if err := app.RunSimulate(*out, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
