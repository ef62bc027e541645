// Package s3select runs S3 Select queries that emit JSON lines.
package s3select

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// maxRecord bounds a single output record. CloudTrail records carrying
// large requestParameters exceed bufio's default token size.
const maxRecord = 4 << 20

type API interface {
	SelectObjectContent(ctx context.Context, params *s3.SelectObjectContentInput, optFns ...func(*s3.Options)) (*s3.SelectObjectContentOutput, error)
}

// JSONDocument describes an object holding a single JSON document, such as
// a CloudTrail log file.
func JSONDocument(gzipped bool) *types.InputSerialization {
	compression := types.CompressionTypeNone
	if gzipped {
		compression = types.CompressionTypeGzip
	}

	return &types.InputSerialization{
		CompressionType: compression,
		JSON:            &types.JSONInput{Type: types.JSONTypeDocument},
	}
}

// Select runs query against s3://bucket/key and returns one raw JSON value
// per output record.
func Select(ctx context.Context, api API, bucket, key, query string, input *types.InputSerialization) ([]json.RawMessage, error) {
	sel, err := api.SelectObjectContent(ctx, &s3.SelectObjectContentInput{
		Bucket:             &bucket,
		Key:                &key,
		Expression:         &query,
		ExpressionType:     types.ExpressionTypeSql,
		InputSerialization: input,
		OutputSerialization: &types.OutputSerialization{
			JSON: &types.JSONOutput{RecordDelimiter: aws.String("\n")},
		},
		RequestProgress: &types.RequestProgress{
			Enabled: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("selecting from s3://%s/%s: %w", bucket, key, err)
	}

	stream := sel.GetStream()
	defer stream.Close()

	records, err := Collect(ctx, stream.Events())
	if err != nil {
		return nil, err
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("reading select stream: %w", err)
	}

	return records, nil
}

// Collect drains an event stream. Record payloads are split on arbitrary
// byte boundaries, so they are reassembled before being cut into lines.
func Collect(ctx context.Context, events <-chan types.SelectObjectContentEventStream) ([]json.RawMessage, error) {
	pr, pw := io.Pipe()

	type result struct {
		records []json.RawMessage
		err     error
	}
	resultsch := make(chan result, 1)

	go func() {
		records := []json.RawMessage{}

		scan := bufio.NewScanner(pr)
		scan.Buffer(nil, maxRecord)
		for scan.Scan() {
			line := scan.Bytes()
			if len(line) == 0 {
				continue
			}
			records = append(records, append(json.RawMessage(nil), line...))
		}

		err := scan.Err()
		pr.CloseWithError(err)
		resultsch <- result{records: records, err: err}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			pw.CloseWithError(ctx.Err())
			return nil, ctx.Err()
		case ev, more := <-events:
			if !more {
				break loop
			}
			switch ev := ev.(type) {
			case *types.SelectObjectContentEventStreamMemberStats:
				slog.DebugContext(ctx, "s3 select stats", "details", ev.Value.Details)
			case *types.SelectObjectContentEventStreamMemberProgress:
			case *types.SelectObjectContentEventStreamMemberCont:
			case *types.SelectObjectContentEventStreamMemberEnd:
			case *types.SelectObjectContentEventStreamMemberRecords:
				if _, err := pw.Write(ev.Value.Payload); err != nil {
					break loop
				}
			default:
				pw.CloseWithError(fmt.Errorf("unexpected select event %T", ev))
				<-resultsch
				return nil, fmt.Errorf("unexpected select event %T", ev)
			}
		}
	}

	pw.Close()
	res := <-resultsch
	if res.err != nil {
		return nil, fmt.Errorf("scanning select records: %w", res.err)
	}
	return res.records, nil
}
