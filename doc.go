/*
Package parley is a multi-step conversational dialog engine: waterfall
dialogs with resumable prompts, per-principal persisted state, and
intent-triggered dispatch.

It separates the conversation logic (dialogs) from the execution state (the
per-conversation dialog stack) and from I/O (transports and recognizers).
The host owns the channel; parley owns turn semantics.

# Concept

A conversation's progress lives in a stack of dialog frames persisted in a
state store. Each inbound message runs exactly one resumption: a suspended
prompt validates the text, a waterfall runs its next step, or the recognizer
classifies the message and begins the matching dialog. The stack is saved
once per turn, after the turn finishes, so a failed turn never leaves a
half-advanced dialog behind.

# Key Features

  - Resumable prompts: a dialog suspends on a question and continues on the
    next message, across process restarts.
  - Nested dialogs: a step can begin a child dialog; the parent resumes with
    the child's result.
  - Pluggable ports: state stores (memory, file, SQLite, Redis), transports,
    and recognizers are interfaces with multiple adapters included.
  - Per-conversation turn serialization, with an optional distributed lock
    for multi-replica hosts.
  - Encryption middleware for state bags at rest.

# Usage

Wire a bot from a store, a recognizer, and a transport, then register
dialogs on its registry:

	package main

	import (
		"context"
		"log"

		"github.com/parleykit/parley"
		"github.com/parleykit/parley/pkg/adapters/memory"
		"github.com/parleykit/parley/pkg/dialog"
		"github.com/parleykit/parley/pkg/domain"
		"github.com/parleykit/parley/pkg/transport"
	)

	func main() {
		replies := transport.NewRecorder()
		bot := parley.New(memory.NewStore(), myRecognizer{}, replies)

		bot.Registry().MustRegister(
			dialog.NewWaterfall("Greet",
				func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
					if err := sc.SendText(ctx, "Hello!"); err != nil {
						return dialog.StepResult{}, err
					}
					return dialog.End(nil), nil
				},
			),
		)

		if err := bot.OnTurn(context.Background(), domain.NewMessage("conv-1", "user", "hi")); err != nil {
			log.Fatal(err)
		}
	}

Each turn's replies go out through the transport; the Recorder transport
collects them for synchronous hosts (HTTP, tests), while the Writer
transport prints them (the chat CLI).
*/
package parley
