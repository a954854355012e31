package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/parleykit/parley"
	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/transport"
)

// echoRecognizer maps any text to a single fixed intent.
type echoRecognizer struct{}

func (echoRecognizer) Recognize(context.Context, string, string) (domain.RankedIntents, error) {
	return domain.RankedIntents{{Name: "Echo", Score: 1.0}}, nil
}

// ExampleNew demonstrates wiring a bot with an in-memory store and a custom
// waterfall dialog that prompts before replying.
func ExampleNew() {
	replies := transport.NewRecorder()
	bot := parley.New(memory.NewStore(), echoRecognizer{}, replies)

	bot.Registry().MustRegister(
		dialog.NewPrompt("namePrompt", "What is your name?", dialog.MinLength(2, "A bit longer, please.")),
		dialog.NewWaterfall("Echo",
			func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
				return dialog.PromptFor("namePrompt", "What is your name?", nil), nil
			},
			func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
				name := sc.Input.Value.(string)
				if err := sc.SendText(ctx, "Hello, "+name+"!"); err != nil {
					return dialog.StepResult{}, err
				}
				return dialog.End(name), nil
			},
		),
	)

	ctx := context.Background()
	for _, text := range []string{"hi there", "Ada"} {
		if err := bot.OnTurn(ctx, domain.NewMessage("conv-1", "ada", text)); err != nil {
			log.Fatal(err)
		}
		for _, reply := range replies.Drain("conv-1") {
			fmt.Println(reply.Text)
		}
	}
	// Output:
	// What is your name?
	// Hello, Ada!
}
