package controltower

import "encoding/json"

// OrganizationalUnit references an AWS Organizations OU.
type OrganizationalUnit struct {
	OrganizationalUnitName string `json:"organizationalUnitName"`
	OrganizationalUnitID   string `json:"organizationalUnitId"`
}

// Account references a member account.
type Account struct {
	AccountName string `json:"accountName"`
	AccountID   string `json:"accountId"`
}

// Guardrail references a control and its behaviour (PREVENTIVE, DETECTIVE, ...).
type Guardrail struct {
	GuardrailID       string `json:"guardrailId"`
	GuardrailBehavior string `json:"guardrailBehavior"`
}

// ManagedAccountStatus is the payload of CreateManagedAccount and
// UpdateManagedAccount events.
type ManagedAccountStatus struct {
	OrganizationalUnit OrganizationalUnit `json:"organizationalUnit"`
	Account            Account            `json:"account"`
	State              string             `json:"state"`
	Message            string             `json:"message"`
	RequestedTimestamp string             `json:"requestedTimestamp"`
	CompletedTimestamp string             `json:"completedTimestamp"`
}

// GuardrailStatus is the payload of EnableGuardrail and DisableGuardrail
// events. Note the request timestamp key differs from the other statuses.
type GuardrailStatus struct {
	OrganizationalUnits []OrganizationalUnit `json:"organizationalUnits"`
	Guardrails          []Guardrail          `json:"guardrails"`
	State               string               `json:"state"`
	Message             string               `json:"message"`
	RequestTimestamp    string               `json:"requestTimestamp"`
	CompletedTimestamp  string               `json:"completedTimestamp"`
}

func (s GuardrailStatus) MarshalJSON() ([]byte, error) {
	type alias GuardrailStatus
	a := alias(s)
	a.OrganizationalUnits = orEmpty(a.OrganizationalUnits)
	a.Guardrails = orEmpty(a.Guardrails)
	return json.Marshal(a)
}

// LandingZoneStatus is the payload of SetupLandingZone and UpdateLandingZone
// events.
type LandingZoneStatus struct {
	State                string               `json:"state"`
	Message              string               `json:"message"`
	RootOrganizationalID string               `json:"rootOrganizationalId"`
	OrganizationalUnits  []OrganizationalUnit `json:"organizationalUnits"`
	Accounts             []Account            `json:"accounts"`
	RequestedTimestamp   string               `json:"requestedTimestamp"`
	CompletedTimestamp   string               `json:"completedTimestamp"`
}

func (s LandingZoneStatus) MarshalJSON() ([]byte, error) {
	type alias LandingZoneStatus
	a := alias(s)
	a.OrganizationalUnits = orEmpty(a.OrganizationalUnits)
	a.Accounts = orEmpty(a.Accounts)
	return json.Marshal(a)
}

// OrganizationalUnitRegistrationStatus is the payload of
// RegisterOrganizationalUnit and DeregisterOrganizationalUnit events.
type OrganizationalUnitRegistrationStatus struct {
	State              string             `json:"state"`
	Message            string             `json:"message"`
	OrganizationalUnit OrganizationalUnit `json:"organizationalUnit"`
	RequestedTimestamp string             `json:"requestedTimestamp"`
	CompletedTimestamp string             `json:"completedTimestamp"`
}

// PrecheckOrganizationalUnit is the OU checked by a precheck, with the checks it failed.
type PrecheckOrganizationalUnit struct {
	OrganizationalUnitName string   `json:"organizationalUnitName"`
	OrganizationalUnitID   string   `json:"organizationalUnitId"`
	FailedPrechecks        []string `json:"failedPrechecks"`
}

func (u PrecheckOrganizationalUnit) MarshalJSON() ([]byte, error) {
	type alias PrecheckOrganizationalUnit
	a := alias(u)
	a.FailedPrechecks = orEmpty(a.FailedPrechecks)
	return json.Marshal(a)
}

// PrecheckAccount is an account checked by a precheck, with the checks it failed.
type PrecheckAccount struct {
	AccountName     string   `json:"accountName"`
	AccountID       string   `json:"accountId"`
	FailedPrechecks []string `json:"failedPrechecks"`
}

func (a PrecheckAccount) MarshalJSON() ([]byte, error) {
	type alias PrecheckAccount
	v := alias(a)
	v.FailedPrechecks = orEmpty(v.FailedPrechecks)
	return json.Marshal(v)
}

// OrganizationalUnitPrecheckStatus is the payload of PrecheckOrganizationalUnit
// events.
type OrganizationalUnitPrecheckStatus struct {
	OrganizationalUnit PrecheckOrganizationalUnit `json:"organizationalUnit"`
	Accounts           []PrecheckAccount          `json:"accounts"`
	State              string                     `json:"state"`
	Message            string                     `json:"message"`
	RequestedTimestamp string                     `json:"requestedTimestamp"`
	CompletedTimestamp string                     `json:"completedTimestamp"`
}

func (s OrganizationalUnitPrecheckStatus) MarshalJSON() ([]byte, error) {
	type alias OrganizationalUnitPrecheckStatus
	a := alias(s)
	a.Accounts = orEmpty(a.Accounts)
	return json.Marshal(a)
}

// BaselineStatusSummary is the outcome of the last operation on an enabled baseline.
type BaselineStatusSummary struct {
	LastOperationIdentifier string `json:"lastOperationIdentifier"`
	Status                  string `json:"status"`
}

// BaselineParameterValue carries a parameter value as the service sends it:
// an untyped scalar rendered as a string.
type BaselineParameterValue struct {
	Untyped BaselineUntypedValue `json:"untyped"`
}

// BaselineUntypedValue holds the string form of the value.
type BaselineUntypedValue struct {
	Object string `json:"object"`
}

// BaselineParameter is one key/value input of an enabled baseline.
type BaselineParameter struct {
	Key   string                 `json:"key"`
	Value BaselineParameterValue `json:"value"`
}

// EnabledBaselineDetails describes a baseline applied to a target OU.
type EnabledBaselineDetails struct {
	Arn                string                `json:"arn"`
	ParentIdentifier   string                `json:"parentIdentifier"`
	TargetIdentifier   string                `json:"targetIdentifier"`
	BaselineIdentifier string                `json:"baselineIdentifier"`
	BaselineVersion    string                `json:"baselineVersion"`
	StatusSummary      BaselineStatusSummary `json:"statusSummary"`
	Parameters         []BaselineParameter   `json:"parameters"`
}

func (d EnabledBaselineDetails) MarshalJSON() ([]byte, error) {
	type alias EnabledBaselineDetails
	a := alias(d)
	a.Parameters = orEmpty(a.Parameters)
	return json.Marshal(a)
}

// BaselineStatus is shared by the four baseline events. BaselineDetails is only
// sent for DisableBaseline; it is kept exactly as received for the others.
type BaselineStatus struct {
	EnabledBaselineDetails EnabledBaselineDetails  `json:"enabledBaselineDetails"`
	BaselineDetails        *EnabledBaselineDetails `json:"baselineDetails,omitempty"`
	RequestedTimestamp     string                  `json:"requestedTimestamp"`
	CompletedTimestamp     string                  `json:"completedTimestamp"`
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func decodeOrganizationalUnit(f fields) OrganizationalUnit {
	return OrganizationalUnit{
		OrganizationalUnitName: f.str("organizationalUnitName"),
		OrganizationalUnitID:   f.str("organizationalUnitId"),
	}
}

func decodeAccount(f fields) Account {
	return Account{
		AccountName: f.str("accountName"),
		AccountID:   f.str("accountId"),
	}
}

func decodeGuardrail(f fields) Guardrail {
	return Guardrail{
		GuardrailID:       f.str("guardrailId"),
		GuardrailBehavior: f.str("guardrailBehavior"),
	}
}

func decodeManagedAccountStatus(f fields) ManagedAccountStatus {
	return ManagedAccountStatus{
		OrganizationalUnit: objectField(f, "organizationalUnit", decodeOrganizationalUnit),
		Account:            objectField(f, "account", decodeAccount),
		State:              f.str("state"),
		Message:            f.str("message"),
		RequestedTimestamp: f.str("requestedTimestamp"),
		CompletedTimestamp: f.str("completedTimestamp"),
	}
}

func decodeGuardrailStatus(f fields) GuardrailStatus {
	return GuardrailStatus{
		OrganizationalUnits: listField(f, "organizationalUnits", decodeOrganizationalUnit),
		Guardrails:          listField(f, "guardrails", decodeGuardrail),
		State:               f.str("state"),
		Message:             f.str("message"),
		RequestTimestamp:    f.str("requestTimestamp"),
		CompletedTimestamp:  f.str("completedTimestamp"),
	}
}

func decodeLandingZoneStatus(f fields) LandingZoneStatus {
	return LandingZoneStatus{
		State:                f.str("state"),
		Message:              f.str("message"),
		RootOrganizationalID: f.str("rootOrganizationalId"),
		OrganizationalUnits:  listField(f, "organizationalUnits", decodeOrganizationalUnit),
		Accounts:             listField(f, "accounts", decodeAccount),
		RequestedTimestamp:   f.str("requestedTimestamp"),
		CompletedTimestamp:   f.str("completedTimestamp"),
	}
}

func decodeOrganizationalUnitRegistrationStatus(f fields) OrganizationalUnitRegistrationStatus {
	return OrganizationalUnitRegistrationStatus{
		State:              f.str("state"),
		Message:            f.str("message"),
		OrganizationalUnit: objectField(f, "organizationalUnit", decodeOrganizationalUnit),
		RequestedTimestamp: f.str("requestedTimestamp"),
		CompletedTimestamp: f.str("completedTimestamp"),
	}
}

func decodePrecheckOrganizationalUnit(f fields) PrecheckOrganizationalUnit {
	return PrecheckOrganizationalUnit{
		OrganizationalUnitName: f.str("organizationalUnitName"),
		OrganizationalUnitID:   f.str("organizationalUnitId"),
		FailedPrechecks:        f.strList("failedPrechecks"),
	}
}

func decodePrecheckAccount(f fields) PrecheckAccount {
	return PrecheckAccount{
		AccountName:     f.str("accountName"),
		AccountID:       f.str("accountId"),
		FailedPrechecks: f.strList("failedPrechecks"),
	}
}

func decodeOrganizationalUnitPrecheckStatus(f fields) OrganizationalUnitPrecheckStatus {
	return OrganizationalUnitPrecheckStatus{
		OrganizationalUnit: objectField(f, "organizationalUnit", decodePrecheckOrganizationalUnit),
		Accounts:           listField(f, "accounts", decodePrecheckAccount),
		State:              f.str("state"),
		Message:            f.str("message"),
		RequestedTimestamp: f.str("requestedTimestamp"),
		CompletedTimestamp: f.str("completedTimestamp"),
	}
}

func decodeBaselineStatusSummary(f fields) BaselineStatusSummary {
	return BaselineStatusSummary{
		LastOperationIdentifier: f.str("lastOperationIdentifier"),
		Status:                  f.str("status"),
	}
}

func decodeBaselineParameter(f fields) BaselineParameter {
	return BaselineParameter{
		Key: f.str("key"),
		Value: objectField(f, "value", func(v fields) BaselineParameterValue {
			return BaselineParameterValue{
				Untyped: objectField(v, "untyped", func(u fields) BaselineUntypedValue {
					return BaselineUntypedValue{Object: u.str("object")}
				}),
			}
		}),
	}
}

func decodeEnabledBaselineDetails(f fields) EnabledBaselineDetails {
	return EnabledBaselineDetails{
		Arn:                f.str("arn"),
		ParentIdentifier:   f.str("parentIdentifier"),
		TargetIdentifier:   f.str("targetIdentifier"),
		BaselineIdentifier: f.str("baselineIdentifier"),
		BaselineVersion:    f.str("baselineVersion"),
		StatusSummary:      objectField(f, "statusSummary", decodeBaselineStatusSummary),
		Parameters:         listField(f, "parameters", decodeBaselineParameter),
	}
}

func decodeBaselineStatus(f fields) BaselineStatus {
	return BaselineStatus{
		EnabledBaselineDetails: objectField(f, "enabledBaselineDetails", decodeEnabledBaselineDetails),
		BaselineDetails:        optObjectField(f, "baselineDetails", decodeEnabledBaselineDetails),
		RequestedTimestamp:     f.str("requestedTimestamp"),
		CompletedTimestamp:     f.str("completedTimestamp"),
	}
}
