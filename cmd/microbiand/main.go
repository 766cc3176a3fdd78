// Command microbiand runs a microbian kernel against a YAML scenario
// manifest, printing its debug dump to stdout or a real serial console.
// It exists to exercise the kernel end-to-end the way a real firmware
// image would: Spawn every process the manifest names, start the
// scheduler, and let the goroutines run.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	microbian "github.com/user-none/go-microbian"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "scenario manifest (YAML) to run")
	consolePath := pflag.StringP("console", "s", "", "serial device for debug output; empty uses stdout")
	runFor := pflag.DurationP("duration", "d", time.Second, "how long to let the scenario run before dumping and exiting")
	fireIRQ := pflag.IntP("fire-irq", "i", -1, "raise this IRQ once, one second after startup, to exercise a handler")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "microbiand - run a microbian kernel scenario\n\n")
		fmt.Fprintf(os.Stderr, "Usage: microbiand --config scenario.yaml [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *configPath == "" {
		pflag.Usage()
		os.Exit(1)
	}

	scenario, err := microbian.LoadScenario(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var console microbian.Console
	if *consolePath != "" {
		sc, err := microbian.OpenSerialConsole(*consolePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer sc.Close()
		console = sc
	} else {
		console = stdoutConsole{}
	}

	irqLine := microbian.NewSimIRQLine()

	k, err := microbian.BuildScenario(scenario, irqLine, console)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	k.Run()

	if *fireIRQ >= 0 {
		go func() {
			time.Sleep(time.Second)
			k.TriggerIRQ(*fireIRQ)
		}()
	}

	select {
	case err := <-k.Fatal():
		// No DebugDump here: the fatal error left the kernel lock held,
		// and the diagnostic has already been written to the console.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	case <-time.After(*runFor):
		k.DebugDump()
	}
}

// stdoutConsole is the demo's default Console: it writes straight to
// stdout rather than requiring a serial device just to watch the demo
// run.
type stdoutConsole struct{}

func (stdoutConsole) Reconfigure() {}

func (stdoutConsole) WriteString(s string) {
	fmt.Print(s)
}
