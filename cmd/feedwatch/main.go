// Command feedwatch connects to the moderation feed and prints every event.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vacancyhub/internal/notifications"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8000", "API server host")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "Moderation API key")
	secure := flag.Bool("tls", false, "Use wss://")
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("an API key is required (-key or API_KEY)")
	}

	scheme := "ws"
	if *secure {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: *host, Path: "/api/moderation/feed"}
	u.RawQuery = url.Values{"api_key": {*apiKey}}.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			log.Fatalf("❌ dial failed: %v (HTTP %d)", err, resp.StatusCode)
		}
		log.Fatalf("❌ dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("✅ connected to %s", u.Host)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("read: %v", err)
				}
				return
			}
			fmt.Println(format(raw))
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("🛑 closing")
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func format(raw []byte) string {
	var ev notifications.Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.PostingID == 0 {
		return string(raw)
	}
	line := fmt.Sprintf("%s %-18s %-5s #%d %s", ev.At.Local().Format(time.TimeOnly), ev.Type, ev.Kind, ev.PostingID, ev.Status)
	if ev.ModeratorID != nil {
		line += fmt.Sprintf(" by %d", *ev.ModeratorID)
	}
	if ev.Published != nil {
		line += fmt.Sprintf(" published=%t", *ev.Published)
	}
	if ev.Reason != "" {
		line += " reason=" + ev.Reason
	}
	return line
}
