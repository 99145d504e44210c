package main

import (
	"context"
	"fmt"

	"github.com/thebiggive/hmrc-gift-aid/internal/giftaid"
)

// runPoll polls a previously submitted claim and prints the outcome.
func runPoll(ctx context.Context, correlationID string) error {
	client, _, err := newLocalClient(ctx, false)
	if err != nil {
		return err
	}

	result, err := client.PollStatus(ctx, giftaid.PollRequest{
		CorrelationID: correlationID,
	})
	if err != nil {
		return fmt.Errorf("polling submission: %w", err)
	}

	switch result.Outcome {
	case giftaid.PollOutcomePending:
		fmt.Println("Still processing.")
		if result.Interval != "" {
			fmt.Printf("Poll again in %s seconds.\n", result.Interval)
		}
	case giftaid.PollOutcomeError:
		fmt.Println("The gateway reported errors for this submission.")
		for _, msg := range result.Errors.Business {
			fmt.Println("  business:", msg.Text)
		}
		for _, msg := range result.Errors.Fatal {
			fmt.Println("  fatal:", msg.Text)
		}
		return fmt.Errorf("submission %s failed", correlationID)
	case giftaid.PollOutcomeFinal:
		fmt.Println("Submission complete.")
		fmt.Println()
		fmt.Println(result.Response)
	}

	return nil
}
