// Copyright 2024 Google, LLC
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

// Package cloud provides components for interacting with Google Cloud services.
// This file defines a generic, reusable Pub/Sub message listener. The listener
// abstracts the mechanics of receiving messages from a subscription and
// delegates the actual processing to a "Command".
//
// Logic Flow:
//  1. An instance of PubSubListener is created with a client and a subscription ID.
//  2. A "Command" (a processing chain) is attached to this listener.
//  3. The `Listen` method starts an asynchronous background goroutine.
//  4. When a message arrives, it's passed to the attached Command for processing.
//  5. When the command reports errors, the failure handler (if set) runs so the
//     job record reaches a terminal error state, and the raw payload is
//     forwarded to the dead-letter topic (if configured) for offline triage.
//  6. The message is ALWAYS acknowledged after handling. Delivery is
//     at-least-once; redelivering a job whose record already says "error" would
//     only burn quota re-failing it, and replay safety for crashes between the
//     write and the ack comes from the terminal-status guard at the head of the
//     chain.
//
// Structs:
//   - PubSubListener: Manages the connection to a Pub/Sub subscription and holds
//     the command that will process incoming messages.
//
// Functions:
//   - NewPubSubListener: Constructor for creating a new PubSubListener.
//   - SetCommand: Attaches a processing command to the listener.
//   - SetFailureHandler: Attaches the handler that commits a failed job.
//   - Listen: Starts the background process to receive and handle messages.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/core/cor"
)

// FailureHandler receives the raw message payload and the chain's errors when
// processing fails. Implementations write the terminal error state for the
// job named in the payload.
type FailureHandler func(ctx context.Context, payload []byte, errs map[string]error)

// PubSubListener encapsulates the components needed to listen to a specific
// Google Cloud Pub/Sub subscription. It acts as a wrapper that connects a
// subscription to a processing command. Since listeners have a life-cycle
// independent of individual API requests, they are considered a core "cloud"
// component.
type PubSubListener struct {
	client       *pubsub.Client       // The client for interacting with the Pub/Sub service.
	subscription *pubsub.Subscription // The specific subscription this listener will pull messages from.
	command      cor.Command          // The command to execute for each message received.
	onFailure    FailureHandler       // Optional handler invoked when the command reports errors.
	deadLetter   *pubsub.Topic        // Optional topic receiving the payloads of failed messages.
}

// NewPubSubListener is the constructor for creating a PubSubListener.
//
// Inputs:
//   - pubsubClient: An authenticated *pubsub.Client for connecting to the service.
//   - subscriptionID: The string ID of the subscription (e.g., "hoops-jobs-sub").
//   - deadLetterTopicID: The topic receiving failed payloads; empty disables forwarding.
//   - command: A cor.Command that defines the processing logic; may be nil and attached later.
//
// Outputs:
//   - *PubSubListener: A pointer to the newly created and configured listener.
//   - error: Reserved for construction failures.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	deadLetterTopicID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)

	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	if deadLetterTopicID != "" {
		cmd.deadLetter = pubsubClient.Topic(deadLetterTopicID)
	}
	return cmd, nil
}

// SetCommand attaches a command to the listener. This supports scenarios
// where the listener is created before the full processing chain is
// assembled. It ensures that a command is not accidentally overwritten.
//
// Inputs:
//   - command: The cor.Command to be executed when a message is received.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// SetFailureHandler attaches the handler run when a chain reports errors.
func (m *PubSubListener) SetFailureHandler(handler FailureHandler) {
	if m.onFailure == nil {
		m.onFailure = handler
	}
}

// Listen starts the asynchronous message receiving process. It runs in a
// separate goroutine so the server can continue handling other work while
// listening for messages in the background.
//
// Inputs:
//   - ctx: A context.Context that controls the lifecycle of the listener. If
//     this context is canceled during graceful shutdown, receiving stops.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))
			slog.Info("received message", "subscription", m.subscription.String())

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
			} else {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.Error("error executing chain", "command", name, "error", e)
				}
				if m.onFailure != nil {
					m.onFailure(spanCtx, msg.Data, chainCtx.GetErrors())
				}
				// Best effort: the job record already carries the terminal
				// error, the dead-letter copy only aids offline triage.
				if m.deadLetter != nil {
					res := m.deadLetter.Publish(spanCtx, &pubsub.Message{Data: msg.Data})
					if _, err := res.Get(spanCtx); err != nil {
						slog.Warn("failed to forward payload to dead-letter topic", "error", err)
					}
				}
			}

			// Ack after handling regardless of outcome. The failure handler
			// has already committed the terminal state, so a redelivery would
			// be skipped by the idempotency guard anyway.
			msg.Ack()
			span.End()
		})

		if err != nil {
			slog.Error("error receiving data", "error", err)
		}
	}()
}
