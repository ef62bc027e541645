// Package controltower decodes and encodes AWS Control Tower lifecycle events:
// the CloudTrail service event found in the detail of EventBridge events with
// source "aws.controltower".
//
// See https://docs.aws.amazon.com/controltower/latest/userguide/lifecycle-events.html
package controltower

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	EventSource           = "controltower.amazonaws.com"
	EventTypeServiceEvent = "AwsServiceEvent"
)

// LifecycleEvent is the envelope of a lifecycle notification. Optional
// attributes are nil when absent and are left out when encoding.
type LifecycleEvent struct {
	EventVersion        string              `json:"eventVersion"`
	UserIdentity        UserIdentity        `json:"userIdentity"`
	EventTime           string              `json:"eventTime"`
	EventSource         string              `json:"eventSource"`
	EventName           string              `json:"eventName"`
	AWSRegion           string              `json:"awsRegion"`
	SourceIPAddress     string              `json:"sourceIPAddress"`
	UserAgent           string              `json:"userAgent"`
	EventID             string              `json:"eventID"`
	ReadOnly            bool                `json:"readOnly"`
	EventType           string              `json:"eventType"`
	ServiceEventDetails ServiceEventDetails `json:"-"`
	ManagementEvent     *bool               `json:"managementEvent,omitempty"`
	RecipientAccountID  *string             `json:"recipientAccountId,omitempty"`
	RequestParameters   json.RawMessage     `json:"requestParameters,omitempty"`
	ResponseElements    json.RawMessage     `json:"responseElements,omitempty"`
	EventCategory       *string             `json:"eventCategory,omitempty"`
}

type UserIdentity struct {
	AccountID string  `json:"accountId"`
	InvokedBy *string `json:"invokedBy,omitempty"`
}

// Decode parses a lifecycle event. Errors are always *DecodeError.
func Decode(data []byte) (*LifecycleEvent, error) {
	e, err := decodeDocument(data, decodeLifecycleEvent)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Encode renders e back to JSON. It only fails for values that were not
// produced by Decode: a nil event, nil details or invalid raw
// request/response JSON.
func Encode(e *LifecycleEvent) ([]byte, error) {
	if e == nil {
		return nil, errors.New("controltower: nil lifecycle event")
	}
	return e.MarshalJSON()
}

// MarshalJSON emits requestParameters and responseElements verbatim, so
// opaque values keep their original whitespace and escaping.
func (e LifecycleEvent) MarshalJSON() ([]byte, error) {
	details, err := EncodeDetails(e.ServiceEventDetails)
	if err != nil {
		return nil, fmt.Errorf("encoding service event details: %w", err)
	}

	type alias LifecycleEvent
	a := alias(e)
	a.RequestParameters, a.ResponseElements = nil, nil

	out, err := json.Marshal(struct {
		alias
		ServiceEventDetails json.RawMessage `json:"serviceEventDetails"`
	}{
		alias:               a,
		ServiceEventDetails: details,
	})
	if err != nil {
		return nil, err
	}

	for _, opaque := range []struct {
		key   string
		value json.RawMessage
	}{
		{"requestParameters", e.RequestParameters},
		{"responseElements", e.ResponseElements},
	} {
		if opaque.value == nil {
			continue
		}
		if !utf8.Valid(opaque.value) || !gjson.ValidBytes(opaque.value) {
			return nil, fmt.Errorf("encoding %s: invalid JSON", opaque.key)
		}
		out, err = sjson.SetRawBytes(out, opaque.key, opaque.value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", opaque.key, err)
		}
	}

	return out, nil
}

func (e *LifecycleEvent) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*e = *decoded
	return nil
}

// DetailsMatchEventName reports whether the details variant is the one the
// service sends for e.EventName. Decode does not check this.
func (e *LifecycleEvent) DetailsMatchEventName() bool {
	return e.ServiceEventDetails != nil && e.ServiceEventDetails.EventName() == e.EventName
}

func decodeUserIdentity(f fields) UserIdentity {
	return UserIdentity{
		AccountID: f.str("accountId"),
		InvokedBy: f.optStr("invokedBy"),
	}
}

func decodeLifecycleEvent(f fields) LifecycleEvent {
	return LifecycleEvent{
		EventVersion:        f.str("eventVersion"),
		UserIdentity:        objectField(f, "userIdentity", decodeUserIdentity),
		EventTime:           f.str("eventTime"),
		EventSource:         f.str("eventSource"),
		EventName:           f.str("eventName"),
		AWSRegion:           f.str("awsRegion"),
		SourceIPAddress:     f.str("sourceIPAddress"),
		UserAgent:           f.str("userAgent"),
		EventID:             f.str("eventID"),
		ReadOnly:            f.boolean("readOnly"),
		EventType:           f.str("eventType"),
		ServiceEventDetails: objectField(f, "serviceEventDetails", decodeDetails),
		ManagementEvent:     f.optBool("managementEvent"),
		RecipientAccountID:  f.optStr("recipientAccountId"),
		RequestParameters:   f.raw("requestParameters"),
		ResponseElements:    f.raw("responseElements"),
		EventCategory:       f.optStr("eventCategory"),
	}
}
