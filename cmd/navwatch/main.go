// Command navwatch tails the lifecycle event stream of a running navsim (or
// any deployment of the dashboard) and prints it to stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/StatML/mrpt/internal/httpc"
	"github.com/StatML/mrpt/internal/log"
)

func main() {
	addr := flag.String("addr", "localhost:8750", "Dashboard host:port")
	flag.Parse()

	// One-shot snapshot before tailing the stream.
	resp, err := httpc.Get(fmt.Sprintf("http://%s/api/status", *addr))
	if err != nil {
		log.Error("fetching status", "error", err)
		os.Exit(1)
	}
	snapshot, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		log.Error("reading status", "error", err)
		os.Exit(1)
	}
	fmt.Printf("status: %s\n", snapshot)

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws/events", *addr), nil)
	if err != nil {
		log.Error("connecting to event stream", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev struct {
			Kind     string `json:"kind"`
			Episode  string `json:"episode"`
			Waypoint int    `json:"waypoint"`
			Reached  bool   `json:"reached"`
			Time     string `json:"time"`
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			fmt.Printf("event: %s\n", data)
			continue
		}
		switch ev.Kind {
		case "waypoint_reached":
			outcome := "reached"
			if !ev.Reached {
				outcome = "skipped"
			}
			fmt.Printf("%s  waypoint %d %s\n", ev.Time, ev.Waypoint, outcome)
		case "new_waypoint_target":
			fmt.Printf("%s  heading to waypoint %d\n", ev.Time, ev.Waypoint)
		default:
			fmt.Printf("%s  %s\n", ev.Time, ev.Kind)
		}
	}
}
