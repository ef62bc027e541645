package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"controltowerevents/bitypes"
	"controltowerevents/controltower"
	"controltowerevents/logging"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/smithy-go"
	"github.com/caarlos0/env/v11"
	"github.com/glassechidna/go-emf/emf"
	"github.com/glassechidna/go-emf/emf/unit"
)

type settings struct {
	Table           string `env:"TABLE"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"INFO"`
	MetricNamespace string `env:"METRIC_NAMESPACE" envDefault:"controltower-lifecycle"`
	RetentionDays   int    `env:"RETENTION_DAYS" envDefault:"365"`
}

type itemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type recorder struct {
	dynamo    itemPutter
	table     string
	retention time.Duration
	now       func() time.Time
	emit      func(emf.MSI)
}

type RecorderOutput struct {
	EventID string `json:",omitempty"`
	Variant string `json:",omitempty"`
	Stored  bool
	Skipped string `json:",omitempty"`
}

func (r *recorder) handle(ctx context.Context, input *bitypes.EventBridgeEvent[json.RawMessage]) (*RecorderOutput, error) {
	ctx = logging.WithAttrs(ctx, "eventBridgeId", input.Id)
	start := r.now()

	msi := emf.MSI{
		"Source":  input.Source,
		"Outcome": emf.Dimension("decoded"),
	}
	defer func() {
		msi["Milliseconds"] = emf.Metric(float64(r.now().Sub(start).Milliseconds()), unit.Milliseconds)
		r.emit(msi)
	}()

	if !input.IsControlTowerLifecycle() {
		slog.WarnContext(ctx, "ignoring event from unexpected source", "source", input.Source, "detailType", input.DetailType)
		msi["Outcome"] = emf.Dimension("ignored")
		return &RecorderOutput{Skipped: "not a lifecycle event"}, nil
	}

	e, err := controltower.Decode(input.Detail)
	if err != nil {
		if controltower.IsForwardCompatible(err) {
			slog.WarnContext(ctx, "skipping unknown lifecycle event variant", logging.DecodeErrorAttrs(err)...)
			msi["Outcome"] = emf.Dimension("unknown")
			return &RecorderOutput{Skipped: "unknown variant"}, nil
		}

		slog.ErrorContext(ctx, "decoding lifecycle event", logging.DecodeErrorAttrs(err)...)
		msi["Outcome"] = emf.Dimension("failed")
		return nil, fmt.Errorf("decoding lifecycle event %s: %w", input.Id, err)
	}

	ctx = logging.WithLifecycleEvent(ctx, e)
	msi["EventName"] = emf.Dimension(e.EventName)
	if !e.DetailsMatchEventName() {
		slog.WarnContext(ctx, "service event details do not match event name")
	}
	slog.InfoContext(ctx, "decoded lifecycle event", "state", controltower.Outcome(e.ServiceEventDetails))

	output := &RecorderOutput{
		EventID: e.EventID,
		Variant: e.ServiceEventDetails.DiscriminatorKey(),
	}
	if r.table == "" {
		return output, nil
	}

	record, err := bitypes.NewLifecycleRecord(e, r.now().Add(r.retention))
	if err != nil {
		return nil, fmt.Errorf("building lifecycle record: %w", err)
	}

	_, err = r.dynamo.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.table,
		Item:                record.DynamoItem(),
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			slog.InfoContext(ctx, "lifecycle event already recorded")
			return output, nil
		}
		return nil, fmt.Errorf("storing lifecycle record: %w", err)
	}

	output.Stored = true
	return output, nil
}

func main() {
	s := settings{}
	if err := env.Parse(&s); err != nil {
		panic(fmt.Sprintf("parsing environment: %+v", err))
	}

	logging.Init(logging.ParseLevel(s.LogLevel))
	emf.Namespace = s.MetricNamespace

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}

	awsv2.AWSV2Instrumentor(&cfg.APIOptions)

	r := &recorder{
		dynamo:    dynamodb.NewFromConfig(cfg),
		table:     s.Table,
		retention: time.Duration(s.RetentionDays) * 24 * time.Hour,
		now:       time.Now,
		emit:      func(msi emf.MSI) { emf.Emit(msi) },
	}

	lambda.Start(logging.Middleware(r.handle))
}
