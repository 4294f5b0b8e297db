// Command serialtool is a standalone interactive harness for the serial
// multiplexer: it opens a port (or falls back to fake mode), starts the
// multiplexer loop, and drops into a read-eval-command loop that sends
// whatever line the user types and prints the parsed response.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/NCSUhardware/high-level/pkg/course"
	"github.com/NCSUhardware/high-level/pkg/logger"
	"github.com/NCSUhardware/high-level/pkg/serialcomm"
)

func main() {
	listPorts := flag.Bool("list", false, "List available serial ports and exit")
	port := flag.String("port", serialcomm.DefaultPort, "Serial port device")
	baud := flag.Int("baud", serialcomm.DefaultBaud, "Serial port baud rate")
	timeout := flag.Duration("timeout", serialcomm.DefaultTimeout, "Read timeout")
	sequential := flag.Bool("sequential", false, "Force sequential (send+receive) execution mode")
	configPath := flag.String("config", "", "Path to a course YAML file whose serial: block overrides the above")
	flag.Parse()

	if *listPorts {
		list, err := serial.GetPortsList()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list ports:", err)
			os.Exit(1)
		}
		for i, p := range list {
			fmt.Println(i, "\t", p)
		}
		return
	}

	// Positional args, mirroring the source tool's [port [baud [timeout]]]
	// argument convention.
	args := flag.Args()
	if len(args) > 0 {
		*port = args[0]
	}
	if len(args) > 1 {
		fmt.Sscanf(args[1], "%d", baud)
	}
	if len(args) > 2 {
		if secs, err := time.ParseDuration(args[2] + "s"); err == nil {
			*timeout = secs
		}
	}

	cfg := serialcomm.NewConfig(
		serialcomm.WithPort(*port),
		serialcomm.WithBaud(*baud),
		serialcomm.WithTimeout(*timeout),
		serialcomm.WithSequential(*sequential),
	)
	if *configPath != "" {
		crs, err := course.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "serialtool: load config:", err)
			os.Exit(1)
		}
		cfg = crs.SerialConfig(cfg)
	}

	mux := serialcomm.Open(cfg)
	if mux.IsFake() {
		fmt.Println("serialtool: warning: faking serial communications")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Log.Debug().Msg("serialtool: termination signal; stopping comm loop")
		cancel()
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- mux.Run(ctx) }()

	cmd := serialcomm.NewCommand(mux)

	cmd.Stop()

	fmt.Println("serialtool: interactive session [Ctrl+D or \"quit\" to end]")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Me    > ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "quit" {
			break
		}
		resp := cmd.Run(line)
		fmt.Printf("Device: %+v\n", resp)
	}

	fmt.Println("serialtool: interactive session terminated")
	cmd.Stop()
	cmd.Quit()
	cancel()
	<-runErr
}
