// Package main provides the Lambda handler that submits a Gift Aid claim
// batch to the Government Gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/google/uuid"

	"github.com/thebiggive/hmrc-gift-aid/internal/claimfile"
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

func handler(ctx context.Context, doc claimfile.Document) error {
	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)

	logger.InfoContext(ctx, "starting claim submission", "donations", len(doc.Donations))

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

	req, err := doc.Request(giftaid.Charity{
		HMRCRef: cfg.Charity.HMRCRef,
		Name:    cfg.Charity.Name,
	})
	if err != nil {
		return fmt.Errorf("building claim request: %w", err)
	}

	result, err := client.Submit(ctx, req)
	if err != nil {
		return fmt.Errorf("submitting claim: %w", err)
	}

	if !result.Submitted {
		logger.ErrorContext(ctx, "claim rejected",
			"correlation_id", result.CorrelationID,
			"donation_ids_with_errors", result.DonationIDsWithErrors)
		return fmt.Errorf("claim rejected with %d business errors", len(result.Errors.Business))
	}

	if err := recordSubmission(ctx, awsCfg, cfg, req.PeriodEnd(), result); err != nil {
		return err
	}

	logger.InfoContext(ctx, "claim submitted",
		"correlation_id", result.CorrelationID,
		"endpoint", result.Endpoint,
		"interval", result.Interval)

	return nil
}

// recordSubmission persists the accepted submission: a tracker row in
// DynamoDB and the correlation id on the SSM pending list, so polling can
// resume across invocations.
func recordSubmission(ctx context.Context, awsCfg aws.Config, cfg *config.Settings,
	periodEnd time.Time, result *giftaid.SubmissionResult) error {

	tracker, err := storage.NewSubmissionTracker(
		dynamodb.NewFromConfig(awsCfg), cfg.DynamoDB.TableName, cfg.DynamoDB.IndexName)
	if err != nil {
		return fmt.Errorf("creating submission tracker: %w", err)
	}

	if err := tracker.Track(ctx, storage.SubmissionInfo{
		CharityRef:    cfg.Charity.HMRCRef,
		CorrelationID: result.CorrelationID,
		Endpoint:      result.Endpoint,
		Interval:      result.Interval,
		PeriodEnd:     periodEnd,
		Status:        storage.StatusAccepted,
		SubmittedAt:   time.Now(),
	}); err != nil {
		return fmt.Errorf("tracking submission: %w", err)
	}

	states, err := storage.NewStateStore(ssm.NewFromConfig(awsCfg), cfg.SSM.ParameterName)
	if err != nil {
		return fmt.Errorf("creating state store: %w", err)
	}
	if err := states.AddPendingCorrelationID(ctx, result.CorrelationID); err != nil {
		return fmt.Errorf("recording pending correlation id: %w", err)
	}

	return nil
}
