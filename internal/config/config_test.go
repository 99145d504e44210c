package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv().
	tests := map[string]struct {
		envVars      map[string]string
		errFragments []string
		wantErr      bool
		wantSettings *Settings
	}{
		"all required vars set": {
			envVars: map[string]string{
				EnvCharityHMRCRef:           "AB12345",
				EnvCharityName:              "Hope Trust",
				EnvDynamoDBTableName:        "submissions-table",
				EnvGatewayPasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
				EnvGatewaySenderID:          "SENDER1",
				EnvSSMParameterName:         "/giftaid/last-claim",
				EnvVendorID:                 "0001",
			},
			wantErr: false,
			wantSettings: &Settings{
				Charity: Charity{
					HMRCRef: "AB12345",
					Name:    "Hope Trust",
				},
				DynamoDB: DynamoDB{
					IndexName: "StatusIndex",
					TableName: "submissions-table",
				},
				Gateway: Gateway{
					PasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
					SenderID:          "SENDER1",
					URL:               "https://transaction-engine.tax.service.gov.uk/submission",
				},
				SSM: SSM{
					ParameterName: "/giftaid/last-claim",
				},
				Vendor: Vendor{
					ID:      "0001",
					Product: "hmrc-gift-aid",
					Version: "1.0.0",
				},
			},
		},
		"custom URL, index and test mode": {
			envVars: map[string]string{
				EnvCharityHMRCRef:           "AB12345",
				EnvCharityName:              "Hope Trust",
				EnvDynamoDBIndexName:        "CustomIndex",
				EnvDynamoDBTableName:        "submissions-table",
				EnvGatewayPasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
				EnvGatewaySenderID:          "SENDER1",
				EnvGatewayTestMode:          "true",
				EnvGatewayURL:               "https://test-transaction-engine.tax.service.gov.uk/submission",
				EnvSSMParameterName:         "/giftaid/last-claim",
				EnvVendorID:                 "0001",
				EnvVendorProduct:            "custom-product",
				EnvVendorVersion:            "2.3.4",
			},
			wantErr: false,
			wantSettings: &Settings{
				Charity: Charity{
					HMRCRef: "AB12345",
					Name:    "Hope Trust",
				},
				DynamoDB: DynamoDB{
					IndexName: "CustomIndex",
					TableName: "submissions-table",
				},
				Gateway: Gateway{
					PasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
					SenderID:          "SENDER1",
					TestMode:          true,
					URL:               "https://test-transaction-engine.tax.service.gov.uk/submission",
				},
				SSM: SSM{
					ParameterName: "/giftaid/last-claim",
				},
				Vendor: Vendor{
					ID:      "0001",
					Product: "custom-product",
					Version: "2.3.4",
				},
			},
		},
		"whitespace only values treated as empty": {
			envVars: map[string]string{
				EnvCharityHMRCRef:           "   ",
				EnvCharityName:              "Hope Trust",
				EnvDynamoDBTableName:        "submissions-table",
				EnvGatewayPasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
				EnvGatewaySenderID:          "SENDER1",
				EnvSSMParameterName:         "/giftaid/last-claim",
				EnvVendorID:                 "0001",
			},
			wantErr:      true,
			errFragments: []string{EnvCharityHMRCRef + " is required"},
		},
		"missing all required vars": {
			envVars: map[string]string{},
			wantErr: true,
			errFragments: []string{
				EnvCharityHMRCRef + " is required",
				EnvCharityName + " is required",
				EnvDynamoDBTableName + " is required",
				EnvGatewayPasswordSecretARN + " is required",
				EnvGatewaySenderID + " is required",
				EnvSSMParameterName + " is required",
				EnvVendorID + " is required",
			},
		},
		"test mode ignores other values": {
			envVars: map[string]string{
				EnvCharityHMRCRef:           "AB12345",
				EnvCharityName:              "Hope Trust",
				EnvDynamoDBTableName:        "submissions-table",
				EnvGatewayPasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
				EnvGatewaySenderID:          "SENDER1",
				EnvGatewayTestMode:          "1",
				EnvSSMParameterName:         "/giftaid/last-claim",
				EnvVendorID:                 "0001",
			},
			wantErr: false,
			wantSettings: &Settings{
				Charity: Charity{
					HMRCRef: "AB12345",
					Name:    "Hope Trust",
				},
				DynamoDB: DynamoDB{
					IndexName: "StatusIndex",
					TableName: "submissions-table",
				},
				Gateway: Gateway{
					PasswordSecretARN: "arn:aws:secretsmanager:eu-west-2:123456789012:secret:gateway-password",
					SenderID:          "SENDER1",
					TestMode:          false,
					URL:               "https://transaction-engine.tax.service.gov.uk/submission",
				},
				SSM: SSM{
					ParameterName: "/giftaid/last-claim",
				},
				Vendor: Vendor{
					ID:      "0001",
					Product: "hmrc-gift-aid",
					Version: "1.0.0",
				},
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for key, value := range tc.envVars {
				t.Setenv(key, value)
			}

			got, err := Load()

			if tc.wantErr {
				require.Error(t, err)
				for _, fragment := range tc.errFragments {
					require.Contains(t, err.Error(), fragment)
				}
				require.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.wantSettings, got)
			}
		})
	}
}
