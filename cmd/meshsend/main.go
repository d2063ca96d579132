// Command meshsend publishes a text message to a Meshtastic mesh through an
// MQTT broker.
//
//	meshsend -m "Hello mesh"
//	meshsend -m "hi" --to-id '!87654321' --channel LongFast --region EU_868
//	meshsend history --limit 5
//	meshsend nodes
//
// Exit codes: 0 success, 1 config error, 2 connection or publish error,
// 3 validation error, 130 interrupted, 99 anything else.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
