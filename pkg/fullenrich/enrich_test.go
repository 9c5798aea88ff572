package fullenrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedStatus(records ...ResultRecord) func(context.Context, string) (*StatusResponse, error) {
	return func(context.Context, string) (*StatusResponse, error) {
		return &StatusResponse{
			Status: StatusFinished,
			Data:   records,
			Cost:   Cost{Credits: len(records)},
		}, nil
	}
}

func TestSubmitAndAwait_NoContacts(t *testing.T) {
	_, err := SubmitAndAwait(context.Background(), &mockClient{}, "batch", nil, nil)
	assert.ErrorIs(t, err, ErrNoContacts)
}

func TestSubmitAndAwait_NoJobID(t *testing.T) {
	mock := &mockClient{
		enrichFunc: func(ctx context.Context, req BulkRequest) (*BulkResponse, error) {
			return &BulkResponse{}, nil
		},
	}

	_, err := SubmitAndAwait(context.Background(), mock, "batch",
		[]ContactInput{{FirstName: "Jean", LastName: "Durand"}}, nil)
	assert.ErrorIs(t, err, ErrNoJobID)
}

func TestSubmitAndAwait_DomainPreferredOverCompanyName(t *testing.T) {
	var submitted BulkRequest
	mock := &mockClient{
		enrichFunc: func(ctx context.Context, req BulkRequest) (*BulkResponse, error) {
			submitted = req
			return &BulkResponse{EnrichmentID: "job-1"}, nil
		},
		statusFunc: finishedStatus(ResultRecord{}, ResultRecord{}),
	}

	contacts := []ContactInput{
		{FirstName: "Jean", LastName: "Durand", Domain: "plomberie.fr", CompanyName: "Plomberie Durand"},
		{FirstName: "Marie", LastName: "Leroy", CompanyName: "Leroy SARL"},
	}
	_, err := SubmitAndAwait(context.Background(), mock, "batch", contacts, nil,
		WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	require.Len(t, submitted.Data, 2)
	assert.Equal(t, "plomberie.fr", submitted.Data[0].Domain)
	assert.Empty(t, submitted.Data[0].CompanyName)
	assert.Empty(t, submitted.Data[1].Domain)
	assert.Equal(t, "Leroy SARL", submitted.Data[1].CompanyName)
	assert.Equal(t, []string{"contact.emails", "contact.phones"}, submitted.Data[0].EnrichFields,
		"both field sets are requested by default")
}

func TestSubmitAndAwait_LegacyJobIDKey(t *testing.T) {
	mock := &mockClient{
		enrichFunc: func(ctx context.Context, req BulkRequest) (*BulkResponse, error) {
			return &BulkResponse{ID: "job-legacy"}, nil
		},
		statusFunc: func(ctx context.Context, id string) (*StatusResponse, error) {
			assert.Equal(t, "job-legacy", id)
			return &StatusResponse{Status: StatusFinished}, nil
		},
	}

	_, err := SubmitAndAwait(context.Background(), mock, "batch",
		[]ContactInput{{FirstName: "Jean", LastName: "Durand"}}, nil,
		WithPollInterval(time.Millisecond))
	require.NoError(t, err)
}

func TestSubmitAndAwait_MapsResults(t *testing.T) {
	mock := &mockClient{
		enrichFunc: func(ctx context.Context, req BulkRequest) (*BulkResponse, error) {
			return &BulkResponse{EnrichmentID: "job-1"}, nil
		},
		statusFunc: finishedStatus(
			ResultRecord{ContactInfo: &ContactInfo{
				MostProbableWorkEmail: &EmailResult{Email: "work@a.fr"},
			}},
			ResultRecord{ContactInfo: &ContactInfo{
				MostProbablePersonalEmail: &EmailResult{Email: "perso@b.fr"},
				MostProbablePhone:         &PhoneResult{Number: "+33600000002"},
			}},
			ResultRecord{},
		),
	}

	contacts := []ContactInput{
		{FirstName: "A", LastName: "A"},
		{FirstName: "B", LastName: "B"},
		{FirstName: "C", LastName: "C"},
	}
	result, err := SubmitAndAwait(context.Background(), mock, "batch", contacts, nil,
		WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "work@a.fr", result.Results[0].Email, "work email wins")
	assert.Equal(t, "perso@b.fr", result.Results[1].Email, "personal email is the fallback")
	assert.Equal(t, "+33600000002", result.Results[1].Phone)
	assert.Empty(t, result.Results[2].Email)
	assert.Equal(t, 3, result.CreditsUsed)
}

func TestSubmitAndAwait_ExtraRecordsIgnored(t *testing.T) {
	mock := &mockClient{
		enrichFunc: func(ctx context.Context, req BulkRequest) (*BulkResponse, error) {
			return &BulkResponse{EnrichmentID: "job-1"}, nil
		},
		statusFunc: finishedStatus(ResultRecord{}, ResultRecord{}, ResultRecord{}),
	}

	result, err := SubmitAndAwait(context.Background(), mock, "batch",
		[]ContactInput{{FirstName: "A", LastName: "A"}}, nil,
		WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, result.Results, 1, "results never outnumber submissions")
}
