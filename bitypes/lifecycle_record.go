package bitypes

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"controltowerevents/controltower"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type LifecycleRecordKey struct {
	AccountID string
	EventTime string
	EventID   string
}

func (k *LifecycleRecordKey) Key() map[string]types.AttributeValue {
	m, _ := attributevalue.MarshalMap(map[string]any{
		"pk": fmt.Sprintf("account#%s", k.AccountID),
		"sk": fmt.Sprintf("event#%s#%s", k.EventTime, k.EventID),
	})

	return m
}

// LifecycleRecord archives one decoded lifecycle event. Event holds the
// canonical JSON produced by controltower.Encode.
type LifecycleRecord struct {
	LifecycleRecordKey
	EventName string
	Variant   string
	State     string
	Region    string
	Event     json.RawMessage
	Expires   time.Time
}

func NewLifecycleRecord(e *controltower.LifecycleEvent, expires time.Time) (*LifecycleRecord, error) {
	j, err := controltower.Encode(e)
	if err != nil {
		return nil, fmt.Errorf("encoding lifecycle event: %w", err)
	}

	return &LifecycleRecord{
		LifecycleRecordKey: LifecycleRecordKey{
			AccountID: e.UserIdentity.AccountID,
			EventTime: e.EventTime,
			EventID:   e.EventID,
		},
		EventName: e.EventName,
		Variant:   e.ServiceEventDetails.DiscriminatorKey(),
		State:     controltower.Outcome(e.ServiceEventDetails),
		Region:    e.AWSRegion,
		Event:     j,
		Expires:   expires,
	}, nil
}

func (r *LifecycleRecord) DynamoItem() map[string]types.AttributeValue {
	m, _ := attributevalue.MarshalMap(map[string]any{
		"EventName": r.EventName,
		"Variant":   r.Variant,
		"State":     r.State,
		"Region":    r.Region,
		"Event":     r.Event,
		"ttl":       r.Expires.Unix(),
		"v":         1,
	})

	for k, v := range r.Key() {
		m[k] = v
	}

	return m
}

func (r *LifecycleRecord) UnmarshalDynamoDBAttributeValue(value types.AttributeValue) error {
	m := map[string]any{}
	err := attributevalue.Unmarshal(value, &m)
	if err != nil {
		return fmt.Errorf("unmarshalling to map: %w", err)
	}

	pk, _ := m["pk"].(string)
	account, ok := strings.CutPrefix(pk, "account#")
	if !ok {
		return fmt.Errorf("incorrect format for pk")
	}
	r.AccountID = account

	sk, _ := m["sk"].(string)
	parts := strings.SplitN(sk, "#", 3)
	if len(parts) != 3 || parts[0] != "event" {
		return fmt.Errorf("incorrect format for sk")
	}
	r.EventTime = parts[1]
	r.EventID = parts[2]

	r.EventName, _ = m["EventName"].(string)
	r.Variant, _ = m["Variant"].(string)
	r.State, _ = m["State"].(string)
	r.Region, _ = m["Region"].(string)

	event, ok := m["Event"].([]byte)
	if !ok {
		return fmt.Errorf("missing event body")
	}
	r.Event = event

	ttl, _ := m["ttl"].(float64)
	r.Expires = time.Unix(int64(ttl), 0)

	return nil
}

// LifecycleEvent decodes the archived event body.
func (r *LifecycleRecord) LifecycleEvent() (*controltower.LifecycleEvent, error) {
	return controltower.Decode(r.Event)
}
