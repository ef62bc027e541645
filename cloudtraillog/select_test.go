package cloudtraillog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"controltowerevents/controltower"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

type fakeSelect struct {
	got *s3.SelectObjectContentInput
}

func (f *fakeSelect) SelectObjectContent(ctx context.Context, params *s3.SelectObjectContentInput, optFns ...func(*s3.Options)) (*s3.SelectObjectContentOutput, error) {
	f.got = params
	return nil, errors.New("access denied")
}

func TestSelectRequest(t *testing.T) {
	api := &fakeSelect{}
	_, err := Select(context.Background(), api, "trail", "AWSLogs/o-1/123/CloudTrail/us-east-1/log.json.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	require.NotNil(t, api.got)
	assert.Equal(t, "trail", *api.got.Bucket)
	assert.Equal(t, LifecycleQuery, *api.got.Expression)
	assert.Equal(t, "GZIP", string(api.got.InputSerialization.CompressionType))
}

func TestFromRecords(t *testing.T) {
	future, err := sjson.SetRawBytes(readFixture(t, "enable-guardrail"), "serviceEventDetails", []byte(`{"futureOperationStatus":{}}`))
	require.NoError(t, err)

	batch, err := fromRecords([]json.RawMessage{
		readFixture(t, "create-managed-account"),
		json.RawMessage(`{"eventSource":"controltower.amazonaws.com","eventName":"ListLandingZones"}`),
		future,
	})
	require.NoError(t, err)

	require.Len(t, batch.Events, 1)
	assert.Equal(t, "CreateManagedAccount", batch.Events[0].EventName)

	require.Len(t, batch.Skipped, 2)
	assert.ErrorIs(t, batch.Skipped[0].Reason, ErrNotLifecycleEvent)
	assert.Equal(t, "ListLandingZones", batch.Skipped[0].EventName)
	assert.ErrorIs(t, batch.Skipped[1].Reason, controltower.ErrUnknownVariant)
	assert.Equal(t, 2, batch.Skipped[1].Index)
}

func TestFromRecordsFatal(t *testing.T) {
	broken, err := sjson.SetBytes(readFixture(t, "setup-landing-zone"), "readOnly", "no")
	require.NoError(t, err)

	_, err = fromRecords([]json.RawMessage{broken})
	require.ErrorIs(t, err, controltower.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "decoding selected record 0")
}
