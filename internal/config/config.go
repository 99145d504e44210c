// Package config provides configuration loading from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvCharityHMRCRef is the claiming organisation's HMRC charities
	// reference.
	EnvCharityHMRCRef = "CHARITY_HMRC_REF"

	// EnvCharityName is the claiming organisation's name.
	EnvCharityName = "CHARITY_NAME"

	// EnvDynamoDBIndexName is the DynamoDB Global Secondary Index for
	// status queries.
	EnvDynamoDBIndexName = "DYNAMODB_INDEX_NAME"

	// EnvDynamoDBTableName is the DynamoDB table tracking submissions.
	EnvDynamoDBTableName = "DYNAMODB_TABLE_NAME"

	// EnvGatewayPasswordSecretARN is the Secrets Manager ARN storing the
	// gateway password.
	EnvGatewayPasswordSecretARN = "GATEWAY_PASSWORD_SECRET_ARN"

	// EnvGatewaySenderID is the Government Gateway sender identifier.
	EnvGatewaySenderID = "GATEWAY_SENDER_ID"

	// EnvGatewayTestMode routes submissions to the gateway test service
	// when set to "true".
	EnvGatewayTestMode = "GATEWAY_TEST_MODE"

	// EnvGatewayURL is the gateway submission endpoint.
	EnvGatewayURL = "GATEWAY_URL"

	// EnvSSMParameterName is the SSM parameter storing the last claim
	// timestamp; the pending-submissions parameter name derives from it.
	EnvSSMParameterName = "SSM_PARAMETER_NAME"

	// EnvVendorID is the vendor identifier issued by the gateway.
	EnvVendorID = "VENDOR_ID"

	// EnvVendorProduct is the software product name reported in channel
	// routing.
	EnvVendorProduct = "VENDOR_PRODUCT"

	// EnvVendorVersion is the software product version reported in
	// channel routing.
	EnvVendorVersion = "VENDOR_VERSION"
)

// Charity holds the claiming organisation's identity for single-organisation
// submissions.
type Charity struct {
	// HMRCRef is the organisation's HMRC charities reference.
	HMRCRef string

	// Name is the organisation's name.
	Name string
}

// DynamoDB holds AWS DynamoDB configuration.
type DynamoDB struct {
	// IndexName is the Global Secondary Index name for querying
	// submissions by status.
	IndexName string

	// TableName is the name of the DynamoDB table tracking submissions.
	TableName string
}

// Gateway holds Government Gateway configuration.
type Gateway struct {
	// PasswordSecretARN is the Secrets Manager ARN storing the sender
	// password.
	PasswordSecretARN string

	// SenderID is the gateway sender identifier.
	SenderID string

	// TestMode routes submissions to the gateway test service.
	TestMode bool

	// URL is the submission endpoint.
	URL string
}

// SSM holds AWS Systems Manager Parameter Store configuration.
type SSM struct {
	// ParameterName is the SSM parameter storing the last claim
	// timestamp.
	ParameterName string
}

// Vendor identifies the submitting software to the gateway.
type Vendor struct {
	// ID is the vendor identifier issued by the gateway.
	ID string

	// Product is the software product name.
	Product string

	// Version is the software product version.
	Version string
}

// Settings holds all configuration for the application.
type Settings struct {
	// Charity contains the claiming organisation's identity.
	Charity Charity

	// DynamoDB contains AWS DynamoDB settings.
	DynamoDB DynamoDB

	// Gateway contains Government Gateway settings.
	Gateway Gateway

	// SSM contains AWS Systems Manager Parameter Store settings.
	SSM SSM

	// Vendor contains channel routing identity settings.
	Vendor Vendor
}

func (s *Settings) validate() error {
	var errs []error

	if s.Charity.HMRCRef == "" {
		errs = append(errs, requiredError(EnvCharityHMRCRef))
	}
	if s.Charity.Name == "" {
		errs = append(errs, requiredError(EnvCharityName))
	}
	if s.DynamoDB.TableName == "" {
		errs = append(errs, requiredError(EnvDynamoDBTableName))
	}
	if s.Gateway.PasswordSecretARN == "" {
		errs = append(errs, requiredError(EnvGatewayPasswordSecretARN))
	}
	if s.Gateway.SenderID == "" {
		errs = append(errs, requiredError(EnvGatewaySenderID))
	}
	if s.SSM.ParameterName == "" {
		errs = append(errs, requiredError(EnvSSMParameterName))
	}
	if s.Vendor.ID == "" {
		errs = append(errs, requiredError(EnvVendorID))
	}

	return errors.Join(errs...)
}

// Load reads configuration from environment variables.
func Load() (*Settings, error) {
	cfg := &Settings{
		Charity: Charity{
			HMRCRef: strings.TrimSpace(os.Getenv(EnvCharityHMRCRef)),
			Name:    strings.TrimSpace(os.Getenv(EnvCharityName)),
		},
		DynamoDB: DynamoDB{
			IndexName: envOrDefault(EnvDynamoDBIndexName, "StatusIndex"),
			TableName: strings.TrimSpace(os.Getenv(EnvDynamoDBTableName)),
		},
		Gateway: Gateway{
			PasswordSecretARN: strings.TrimSpace(os.Getenv(EnvGatewayPasswordSecretARN)),
			SenderID:          strings.TrimSpace(os.Getenv(EnvGatewaySenderID)),
			TestMode:          strings.EqualFold(os.Getenv(EnvGatewayTestMode), "true"),
			URL:               envOrDefault(EnvGatewayURL, "https://transaction-engine.tax.service.gov.uk/submission"),
		},
		SSM: SSM{
			ParameterName: strings.TrimSpace(os.Getenv(EnvSSMParameterName)),
		},
		Vendor: Vendor{
			ID:      strings.TrimSpace(os.Getenv(EnvVendorID)),
			Product: envOrDefault(EnvVendorProduct, "hmrc-gift-aid"),
			Version: envOrDefault(EnvVendorVersion, "1.0.0"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func requiredError(envVar string) error {
	return fmt.Errorf("%s is required", envVar)
}
