// Package cloudtraillog extracts Control Tower lifecycle events from the
// documents they are found in: CloudTrail log files delivered to S3
// (optionally gzipped), EventBridge events, or bare lifecycle events.
package cloudtraillog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"controltowerevents/bitypes"
	"controltowerevents/controltower"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/gjson"
)

var ErrNotLifecycleEvent = errors.New("cloudtraillog: not a Control Tower lifecycle event")

type Batch struct {
	Events  []*controltower.LifecycleEvent
	Skipped []Skipped
}

// Skipped describes a record that was not decoded. Reason is either
// ErrNotLifecycleEvent or a forward-compatible controltower.DecodeError.
type Skipped struct {
	Index     int
	EventID   string
	EventName string
	Reason    error
}

// Read reads a whole document from r, gunzipping it when it starts with the
// gzip magic bytes.
func Read(r io.Reader) (*Batch, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(2)

	var body io.Reader = br
	if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gzr.Close()
		body = gzr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	return Parse(data)
}

// Parse decodes every lifecycle event in data. Records of other services and
// unknown detail variants are reported in Batch.Skipped; any other decode
// error aborts.
func Parse(data []byte) (*Batch, error) {
	doc := gjson.ParseBytes(data)
	batch := &Batch{}

	switch {
	case doc.Get("Records").IsArray():
		for i, rec := range doc.Get("Records").Array() {
			if !isLifecycleRecord(rec) {
				batch.skip(i, rec, ErrNotLifecycleEvent)
				continue
			}
			if err := batch.add(i, rec, []byte(rec.Raw)); err != nil {
				return nil, fmt.Errorf("decoding record %d: %w", i, err)
			}
		}
	case doc.Get("detail-type").Exists():
		ev := bitypes.EventBridgeEvent[json.RawMessage]{}
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("unmarshalling eventbridge event: %w", err)
		}
		detail := gjson.ParseBytes(ev.Detail)
		if !ev.IsControlTowerLifecycle() {
			batch.skip(0, detail, ErrNotLifecycleEvent)
			break
		}
		if err := batch.add(0, detail, ev.Detail); err != nil {
			return nil, fmt.Errorf("decoding eventbridge detail %s: %w", ev.Id, err)
		}
	default:
		if err := batch.add(0, doc, data); err != nil {
			return nil, err
		}
	}

	return batch, nil
}

func isLifecycleRecord(rec gjson.Result) bool {
	return rec.Get("eventSource").String() == controltower.EventSource &&
		rec.Get("serviceEventDetails").Exists()
}

func (b *Batch) add(index int, rec gjson.Result, raw []byte) error {
	e, err := controltower.Decode(raw)
	if err != nil {
		if controltower.IsForwardCompatible(err) {
			b.skip(index, rec, err)
			return nil
		}
		return err
	}

	b.Events = append(b.Events, e)
	return nil
}

func (b *Batch) skip(index int, rec gjson.Result, reason error) {
	b.Skipped = append(b.Skipped, Skipped{
		Index:     index,
		EventID:   rec.Get("eventID").String(),
		EventName: rec.Get("eventName").String(),
		Reason:    reason,
	})
}

// Downloader is satisfied by *manager.Downloader.
type Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// Fetch downloads an object, e.g. a CloudTrail log file, and reads it.
func Fetch(ctx context.Context, dl Downloader, bucket, key string) (*Batch, error) {
	w := manager.NewWriteAtBuffer(nil)
	_, err := dl.Download(ctx, w, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", bucket, key, err)
	}

	return Read(bytes.NewReader(w.Bytes()))
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(u string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(u, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", u)
	}

	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs a bucket and key: %q", u)
	}
	return bucket, key, nil
}
