// Package main provides the Lambda handler that polls the Government Gateway
// for the outcome of previously accepted claim submissions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/google/uuid"

	"github.com/thebiggive/hmrc-gift-aid/internal/config"
	"github.com/thebiggive/hmrc-gift-aid/internal/giftaid"
	"github.com/thebiggive/hmrc-gift-aid/internal/govtalk"
	"github.com/thebiggive/hmrc-gift-aid/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	lambda.Start(handler)
}

func handler(ctx context.Context) error {
	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	credentials, err := storage.NewCredentialStore(
		secretsmanager.NewFromConfig(awsCfg), cfg.Gateway.PasswordSecretARN)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}

	password, err := credentials.Password(ctx)
	if err != nil {
		return fmt.Errorf("getting gateway password: %w", err)
	}

	transport, err := govtalk.NewClient(govtalk.Config{URL: cfg.Gateway.URL})
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}

	client, err := giftaid.New(giftaid.Config{
		Logger:    logger,
		Password:  password,
		Product:   cfg.Vendor.Product,
		SenderID:  cfg.Gateway.SenderID,
		TestMode:  cfg.Gateway.TestMode,
		Transport: transport,
		VendorID:  cfg.Vendor.ID,
		Version:   cfg.Vendor.Version,
	})
	if err != nil {
		return fmt.Errorf("creating gift aid client: %w", err)
	}

	tracker, err := storage.NewSubmissionTracker(
		dynamodb.NewFromConfig(awsCfg), cfg.DynamoDB.TableName, cfg.DynamoDB.IndexName)
	if err != nil {
		return fmt.Errorf("creating submission tracker: %w", err)
	}

	states, err := storage.NewStateStore(ssm.NewFromConfig(awsCfg), cfg.SSM.ParameterName)
	if err != nil {
		return fmt.Errorf("creating state store: %w", err)
	}

	pending, err := states.PendingCorrelationIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing pending correlation ids: %w", err)
	}

	logger.InfoContext(ctx, "polling pending submissions", "pending", len(pending))

	for _, id := range pending {
		if err := pollOne(ctx, logger, client, tracker, states, id); err != nil {
			logger.ErrorContext(ctx, "polling submission", "correlation_id", id, "error", err)
		}
	}

	return nil
}

// pollOne polls a single pending submission and settles its tracker row when
// the gateway has reached a final outcome. Still-pending submissions are left
// untouched for the next run.
func pollOne(ctx context.Context, logger *slog.Logger, client *giftaid.Client,
	tracker *storage.SubmissionTracker, states *storage.StateStore, correlationID string) error {

	info, err := tracker.Submission(ctx, correlationID)
	if err != nil {
		return fmt.Errorf("loading tracked submission: %w", err)
	}

	endpoint := ""
	if info != nil {
		endpoint = info.Endpoint
	}

	result, err := client.PollStatus(ctx, giftaid.PollRequest{
		CorrelationID: correlationID,
		Endpoint:      endpoint,
	})
	if err != nil {
		return fmt.Errorf("polling status: %w", err)
	}

	switch result.Outcome {
	case giftaid.PollOutcomePending:
		logger.InfoContext(ctx, "submission still pending",
			"correlation_id", correlationID, "interval", result.Interval)
		return nil

	case giftaid.PollOutcomeError:
		if err := tracker.SetStatus(ctx, correlationID, storage.StatusRejected); err != nil {
			return fmt.Errorf("marking submission rejected: %w", err)
		}
		if err := states.RemovePendingCorrelationID(ctx, correlationID); err != nil {
			return fmt.Errorf("removing pending correlation id: %w", err)
		}
		logger.ErrorContext(ctx, "submission rejected",
			"correlation_id", correlationID,
			"business_errors", len(result.Errors.Business),
			"fatal_errors", len(result.Errors.Fatal))
		return nil

	default:
		if err := tracker.SetStatus(ctx, correlationID, storage.StatusCompleted); err != nil {
			return fmt.Errorf("marking submission completed: %w", err)
		}
		if err := states.RemovePendingCorrelationID(ctx, correlationID); err != nil {
			return fmt.Errorf("removing pending correlation id: %w", err)
		}
		if err := states.SetLastClaimTime(ctx, time.Now()); err != nil {
			return fmt.Errorf("recording last claim time: %w", err)
		}
		logger.InfoContext(ctx, "submission completed", "correlation_id", correlationID)
		return nil
	}
}
