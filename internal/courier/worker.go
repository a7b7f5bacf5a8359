package courier

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Handler processes one inbound message. Failures belong to that single
// message; the worker carries on with the rest of the inbox.
type Handler interface {
	Handle(msg *Message) error
}

// Worker runs the inbox polling loop and hands each new message to the
// dispatch layer.
type Worker struct {
	client   *Client
	handler  Handler
	interval time.Duration
	lastSeen string
}

// NewWorker initializes the polling worker, resuming from the persisted
// inbox watermark.
func NewWorker(client *Client, handler Handler, interval time.Duration) *Worker {
	return &Worker{
		client:   client,
		handler:  handler,
		interval: interval,
		lastSeen: viper.GetString("last_inbox_id"),
	}
}

// Start launches the polling loop.
func (w *Worker) Start() {
	log.Printf("courier worker started (poll interval %s)", w.interval)
	for {
		msgs, err := w.client.Inbox(w.lastSeen)
		if err != nil {
			log.Printf("Error fetching inbox: %v", err)
			time.Sleep(w.interval)
			continue
		}

		for i := range msgs {
			msg := &msgs[i]
			w.lastSeen = msg.ID
			// Persist the watermark so a restart doesn't replay the inbox.
			viper.Set("last_inbox_id", w.lastSeen)
			_ = viper.WriteConfig() // Ignore error if config file doesn't exist yet

			if err := w.handler.Handle(msg); err != nil {
				log.Printf("Error handling message %s: %v", msg.ID, err)
			}
		}

		time.Sleep(w.interval)
	}
}
