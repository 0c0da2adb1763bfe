package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestCleanupClearsExpiredCodes(t *testing.T) {
	ctx := context.Background()
	database := db.New(db.NewMemoryStore())
	require.NoError(t, database.EnsureIndexes(ctx))

	now := time.Now()
	expired := &models.User{Email: "old@example.com"}
	fresh := &models.User{Email: "new@example.com"}
	require.NoError(t, database.CreateUser(ctx, expired))
	require.NoError(t, database.CreateUser(ctx, fresh))
	require.NoError(t, database.SetResetCode(ctx, expired.ID, "111111", now.Add(-time.Hour)))
	require.NoError(t, database.SetResetCode(ctx, fresh.ID, "222222", now.Add(time.Hour)))

	cw := &fakeCloudWatch{}
	rows, err := cleanup(ctx, database, cw, "Test", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	require.Len(t, cw.inputs, 1)
	datum := cw.inputs[0].MetricData[0]
	assert.Equal(t, "RowsCleared", *datum.MetricName)
	assert.Equal(t, 1.0, *datum.Value)

	u, err := database.GetUser(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "222222", u.ResetCode)
}

func TestCleanupIgnoresMetricFailure(t *testing.T) {
	ctx := context.Background()
	database := db.New(db.NewMemoryStore())

	rows, err := cleanup(ctx, database, &fakeCloudWatch{err: errors.New("throttled")}, "Test", time.Now())
	require.NoError(t, err)
	assert.Zero(t, rows)
}
