// simtrace runs a scripted standing-start drive through the simulation
// kernel at fixed timestep and prints RPM/speed traces. Useful for tuning
// parameter sets without a client attached; the same flags always produce
// the same output.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/guptarohit/asciigraph"

	"apexdrive/internal/shared/logger"
	"apexdrive/internal/shared/types"
	"apexdrive/internal/sim"
)

func main() {
	log := logger.New("simtrace")

	duration := flag.Float64("duration", 20, "simulated seconds to run")
	throttle := flag.Float64("throttle", 1.0, "throttle applied after launch")
	shiftRPM := flag.Float64("shift-rpm", 6500, "upshift when rpm exceeds this")
	launchTime := flag.Float64("launch", 1.0, "seconds of clutch slip at launch")
	configPath := flag.String("config", "", "JSON config overriding defaults")
	graphHeight := flag.Int("height", 12, "plot height in rows")
	flag.Parse()

	cfg := sim.DefaultConfig()
	if *configPath != "" {
		loaded, err := sim.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	world := sim.NewWorld("trace", cfg)
	steps := int(*duration / cfg.TimeStep)
	sampleEvery := int(0.1 / cfg.TimeStep)
	if sampleEvery < 1 {
		sampleEvery = 1
	}

	var rpmSeries, speedSeries []float64
	gear := 0
	topSpeed := 0.0
	var firstTo100 float64

	for i := 0; i < steps; i++ {
		t := float64(i) * cfg.TimeStep
		snap := world.Snapshot()

		in := types.DriveInput{
			Throttle:   *throttle,
			ClutchHeld: t < *launchTime,
		}
		// The pedal needs time to travel below the bite point; select
		// first only once the clutch is actually open.
		if gear == 0 && in.ClutchHeld && snap.Engine.ClutchEngagement < 0.01 {
			gear = 1
			in.Gear = "1"
		}
		if gear >= 1 && snap.Engine.RPM > *shiftRPM && gear < 6 && snap.Engine.ClutchEngagement > 0.99 {
			gear++
			in.Gear = fmt.Sprintf("%d", gear)
		}
		world.ApplyInput(in)
		world.Step()

		if i%sampleEvery == 0 {
			rpmSeries = append(rpmSeries, snap.Engine.RPM)
			speedSeries = append(speedSeries, snap.Car.SpeedMS*3.6)
		}
		if snap.Car.SpeedMS > topSpeed {
			topSpeed = snap.Car.SpeedMS
		}
		if firstTo100 == 0 && snap.Car.SpeedMS*3.6 >= 100 {
			firstTo100 = t
		}
	}

	final := world.Snapshot()
	fmt.Println(asciigraph.Plot(rpmSeries,
		asciigraph.Height(*graphHeight),
		asciigraph.Caption("engine rpm")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(speedSeries,
		asciigraph.Height(*graphHeight),
		asciigraph.Caption("speed km/h")))
	fmt.Println()

	fmt.Printf("ran            %.1f s simulated (%d steps at dt=%.4f)\n", *duration, steps, cfg.TimeStep)
	fmt.Printf("final gear     %s\n", final.Engine.Gear)
	fmt.Printf("final rpm      %.0f\n", final.Engine.RPM)
	fmt.Printf("top speed      %.1f km/h\n", topSpeed*3.6)
	if firstTo100 > 0 {
		fmt.Printf("0-100 km/h     %.2f s\n", firstTo100)
	} else {
		fmt.Printf("0-100 km/h     not reached\n")
	}
	if final.Engine.Stalled {
		fmt.Fprintln(os.Stderr, "warning: engine stalled during the run")
		os.Exit(1)
	}
}
