package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI defines the SSM operations used by the state store.
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)

	// PutParameter stores a parameter in SSM.
	PutParameter(
		ctx context.Context,
		params *ssm.PutParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.PutParameterOutput, error)
}

// StateStore manages claim submission state in AWS SSM Parameter Store: the
// correlation ids still awaiting a final gateway response, and the time of
// the last completed claim.
type StateStore struct {
	// client is the SSM API client.
	client SSMAPI

	// lastClaimParameterName is the SSM parameter name for the last claim
	// time.
	lastClaimParameterName string

	// pendingParameterName is the SSM parameter name for pending
	// correlation ids.
	pendingParameterName string
}

// LastClaimTime returns the timestamp of the last completed claim.
func (s *StateStore) LastClaimTime(ctx context.Context) (time.Time, error) {
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(s.lastClaimParameterName),
	})
	if err != nil {
		// Parameter not found is not an error - return zero time.
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("getting parameter from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, *output.Parameter.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time from parameter: %w", err)
	}

	return t, nil
}

// SetLastClaimTime updates the last claim timestamp.
func (s *StateStore) SetLastClaimTime(ctx context.Context, t time.Time) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.lastClaimParameterName),
		Overwrite: aws.Bool(true),
		Type:      types.ParameterTypeString,
		Value:     aws.String(t.Format(time.RFC3339)),
	})
	if err != nil {
		return fmt.Errorf("putting parameter to SSM: %w", err)
	}

	return nil
}

// PendingCorrelationIDs returns the correlation ids still awaiting a final
// gateway response.
func (s *StateStore) PendingCorrelationIDs(ctx context.Context) ([]string, error) {
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(s.pendingParameterName),
	})
	if err != nil {
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting pending correlation ids from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, nil
	}

	value := *output.Parameter.Value
	if value == "" {
		return nil, nil
	}

	// Stored comma-separated; correlation ids are hex and never contain
	// commas.
	return strings.Split(value, ","), nil
}

// SetPendingCorrelationIDs stores the correlation ids to poll.
func (s *StateStore) SetPendingCorrelationIDs(ctx context.Context, ids []string) error {
	value := strings.Join(ids, ",")

	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.pendingParameterName),
		Overwrite: aws.Bool(true),
		Type:      types.ParameterTypeString,
		Value:     aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("putting pending correlation ids to SSM: %w", err)
	}

	return nil
}

// RemovePendingCorrelationID removes a single id from the pending list after
// its final response arrived.
func (s *StateStore) RemovePendingCorrelationID(ctx context.Context, id string) error {
	ids, err := s.PendingCorrelationIDs(ctx)
	if err != nil {
		return fmt.Errorf("getting pending correlation ids: %w", err)
	}

	remaining := make([]string, 0, len(ids))
	for _, existingID := range ids {
		if existingID != id {
			remaining = append(remaining, existingID)
		}
	}

	return s.SetPendingCorrelationIDs(ctx, remaining)
}

// AddPendingCorrelationID appends a freshly accepted submission's id to the
// pending list.
func (s *StateStore) AddPendingCorrelationID(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("correlation ID is required")
	}

	ids, err := s.PendingCorrelationIDs(ctx)
	if err != nil {
		return fmt.Errorf("getting pending correlation ids: %w", err)
	}

	for _, existingID := range ids {
		if existingID == id {
			return nil
		}
	}

	return s.SetPendingCorrelationIDs(ctx, append(ids, id))
}

// StateStoreOption configures a StateStore.
type StateStoreOption func(*StateStore)

// WithPendingParameter sets the SSM parameter name for pending correlation
// ids.
func WithPendingParameter(name string) StateStoreOption {
	return func(s *StateStore) {
		s.pendingParameterName = name
	}
}

// NewStateStore creates a new SSM-backed state store.
func NewStateStore(client SSMAPI, lastClaimParameterName string, opts ...StateStoreOption) (*StateStore, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}
	if lastClaimParameterName == "" {
		return nil, errors.New("parameter name is required")
	}

	store := &StateStore{
		client:                 client,
		lastClaimParameterName: lastClaimParameterName,
	}

	for _, opt := range opts {
		opt(store)
	}

	// Default pending parameter name if not set.
	if store.pendingParameterName == "" {
		store.pendingParameterName = lastClaimParameterName + "-pending"
	}

	return store, nil
}
