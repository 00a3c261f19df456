// Copyright 2025 HealthTriage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with external services.
// This file defines a generic Pub/Sub message listener that delegates message
// processing to a workflow command. A message is acknowledged only when the
// command's chain ran without errors; otherwise the message is redelivered
// after its acknowledgement deadline per the subscription's retry policy.
//
// Each message is processed under a deadline taken from the subscription
// configuration, since hosted-model calls can stall indefinitely and an
// unbounded run would pin the request in PROCESSING forever.
package cloud

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects one Pub/Sub subscription to a processing command.
// Listeners have a life-cycle independent of individual API requests, so they
// live in the cloud package.
type PubSubListener struct {
	client           *pubsub.Client       // The Pub/Sub service client.
	subscription     *pubsub.Subscription // The subscription this listener pulls from.
	timeoutInSeconds int                  // Per-message processing deadline; zero disables the deadline.
	command          cor.Command          // The command executed for each message.
}

// NewPubSubListener creates a listener for the given subscription ID. The
// command may be nil at construction time and attached later with SetCommand,
// once the workflow chain has been assembled.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)

	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetTimeout sets the per-message processing deadline in seconds.
func (m *PubSubListener) SetTimeout(seconds int) {
	m.timeoutInSeconds = seconds
}

// SetCommand attaches a command to the listener. The first command attached
// wins; later calls are ignored so the initial wiring is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts the asynchronous message receiving loop in a background
// goroutine. Canceling ctx stops the loop.
func (m *PubSubListener) Listen(ctx context.Context) {
	log.Printf("listening: %s", m.subscription)

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetName("receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))
			log.Println("received message")

			runCtx := spanCtx
			if m.timeoutInSeconds > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(spanCtx, time.Duration(m.timeoutInSeconds)*time.Second)
				defer cancel()
			}

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(runCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				// The message is processed; Pub/Sub may delete it.
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for _, e := range chainCtx.GetErrors() {
					log.Printf("error executing chain: %v", e)
				}
				// No Ack or Nack: the message is redelivered after its
				// acknowledgement deadline expires.
			}

			span.End()
		})

		if err != nil {
			log.Printf("error receiving data: %v", err)
		}
	}()
}
