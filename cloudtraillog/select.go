package cloudtraillog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"controltowerevents/s3select"
	"github.com/tidwall/gjson"
)

// LifecycleQuery selects the Control Tower records of a CloudTrail log file.
const LifecycleQuery = "SELECT * FROM S3Object[*].Records[*] r WHERE r.eventSource = 'controltower.amazonaws.com'"

// Select decodes the lifecycle events of a CloudTrail log file using S3
// Select, so that records of other services are never downloaded.
func Select(ctx context.Context, api s3select.API, bucket, key string) (*Batch, error) {
	raws, err := s3select.Select(ctx, api, bucket, key, LifecycleQuery, s3select.JSONDocument(strings.HasSuffix(key, ".gz")))
	if err != nil {
		return nil, err
	}

	return fromRecords(raws)
}

func fromRecords(raws []json.RawMessage) (*Batch, error) {
	batch := &Batch{}
	for i, raw := range raws {
		rec := gjson.ParseBytes(raw)
		if !isLifecycleRecord(rec) {
			batch.skip(i, rec, ErrNotLifecycleEvent)
			continue
		}
		if err := batch.add(i, rec, raw); err != nil {
			return nil, fmt.Errorf("decoding selected record %d: %w", i, err)
		}
	}

	return batch, nil
}
