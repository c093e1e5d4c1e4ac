package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"tickerfree/core"
	"tickerfree/host/monitor"
	"tickerfree/host/serial"
	"tickerfree/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	oid     = flag.Int("oid", -1, "Only show events for this ticker OID (-1 for all)")
	quiet   = flag.Bool("quiet", false, "Hide debug text messages")
	verbose = flag.Bool("verbose", false, "Print frame sequence numbers and a summary on exit")
)

func main() {
	flag.Parse()

	fmt.Println("tickerfree monitor")
	fmt.Println("==================")

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	start := time.Now()
	m, err := monitor.Open(cfg, func(seq uint8, msg core.Message) {
		isText := msg.ID == protocol.MsgDebugText
		if isText && *quiet {
			return
		}
		if !isText && *oid >= 0 && int(msg.Event.OID) != *oid {
			return
		}
		line := monitor.Format(msg)
		if *verbose {
			line = fmt.Sprintf("%8.3fs seq=%#02x %s", time.Since(start).Seconds(), seq, line)
		}
		fmt.Println(line)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Listening on %s (Ctrl-C to exit)\n", *device)

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	closing := make(chan struct{})
	go func() {
		<-interrupted
		close(closing)
		m.Close()
	}()

	runErr := m.Run()

	if *verbose {
		s := m.Stats()
		fmt.Printf("\nframes=%d bad_frames=%d bad_data=%d gaps=%d\n", s.Frames, s.BadFrames, s.BadData, s.Gaps)
	}
	if runErr != nil {
		select {
		case <-closing:
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
			os.Exit(1)
		}
	}
}
