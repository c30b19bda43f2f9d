package services

import (
	"context"
	"log"

	pubnub "github.com/pubnub/go"

	"parking-system/utils"
)

// Notifier publishes realtime events to consumers and owners. Delivery is
// best effort; the engine never fails an operation on a publish error.
type Notifier interface {
	Publish(channel string, message map[string]any)
}

type PubNubNotifier struct {
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{
		pn:      pn,
		breaker: utils.NewCircuitBreaker("pubnub"),
	}
}

func (n *PubNubNotifier) Publish(channel string, message map[string]any) {
	err := n.breaker.Execute(context.Background(), func() error {
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return err
	})
	if err != nil {
		log.Printf("notifier: publish to %s failed: %v", channel, err)
	}
}

// NoopNotifier is used when no PubNub keys are configured.
type NoopNotifier struct{}

func (NoopNotifier) Publish(string, map[string]any) {}
