// Command kiosk is a minimal check-in client: it connects to the visit hub,
// submits one check-in event, and waits for the resulting broadcast. It
// exists to exercise the client connector end to end from a shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"visitflow/internal/hub"
	"visitflow/internal/hub/client"
	"visitflow/internal/platform/logger"
)

func main() {
	var (
		hubURL  = flag.String("hub", "ws://localhost:8080/visithub", "visit hub websocket URL")
		name    = flag.String("name", "", "visitor name (self check-in)")
		company = flag.String("company", "", "visitor company (self check-in)")
		visitID = flag.String("id", "", "planned visitor id (remote check-in)")
		wait    = flag.Duration("wait", 5*time.Second, "how long to wait for the broadcast")
	)
	flag.Parse()

	event := hub.Event{Mode: hub.ModeSelfCheckIn, Name: *name, Company: *company}
	if *visitID != "" {
		event = hub.Event{Mode: hub.ModeRemoteCheckIn, ID: *visitID}
	}

	log := logger.New()
	connector := client.New(*hubURL, "kiosk", log)
	defer connector.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *wait)
	defer cancel()

	if err := connector.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	if err := connector.Send(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-connector.Broadcasts():
		fmt.Println("check-in accepted, displays refreshing")
	case rejection := <-connector.Rejections():
		fmt.Fprintf(os.Stderr, "check-in rejected: %s: %s\n", rejection.Code, rejection.Message)
		os.Exit(1)
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "timed out waiting for broadcast")
		os.Exit(1)
	}
}
