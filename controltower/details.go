package controltower

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ServiceEventDetails is the content of the serviceEventDetails object: exactly
// one of the thirteen status variants below. The set is closed; use a type
// switch to get at the payload.
type ServiceEventDetails interface {
	// DiscriminatorKey is the single key the variant is encoded under, e.g.
	// "createManagedAccountStatus".
	DiscriminatorKey() string
	// EventName is the eventName of lifecycle events carrying this variant.
	EventName() string

	payload() any
}

// Discriminator keys, in the order the service documents them.
const (
	KeyCreateManagedAccountStatus         = "createManagedAccountStatus"
	KeyUpdateManagedAccountStatus         = "updateManagedAccountStatus"
	KeyEnableGuardrailStatus              = "enableGuardrailStatus"
	KeyDisableGuardrailStatus             = "disableGuardrailStatus"
	KeySetupLandingZoneStatus             = "setupLandingZoneStatus"
	KeyUpdateLandingZoneStatus            = "updateLandingZoneStatus"
	KeyRegisterOrganizationalUnitStatus   = "registerOrganizationalUnitStatus"
	KeyDeregisterOrganizationalUnitStatus = "deregisterOrganizationalUnitStatus"
	KeyPrecheckOrganizationalUnitStatus   = "precheckOrganizationalUnitStatus"
	KeyEnableBaselineStatus               = "enableBaselineStatus"
	KeyResetEnabledBaselineStatus         = "resetEnabledBaselineStatus"
	KeyUpdateEnabledBaselineStatus        = "updateEnabledBaselineStatus"
	KeyDisableBaselineStatus              = "disableBaselineStatus"
)

type CreateManagedAccountStatus struct{ ManagedAccountStatus }
type UpdateManagedAccountStatus struct{ ManagedAccountStatus }
type EnableGuardrailStatus struct{ GuardrailStatus }
type DisableGuardrailStatus struct{ GuardrailStatus }
type SetupLandingZoneStatus struct{ LandingZoneStatus }
type UpdateLandingZoneStatus struct{ LandingZoneStatus }
type RegisterOrganizationalUnitStatus struct {
	OrganizationalUnitRegistrationStatus
}
type DeregisterOrganizationalUnitStatus struct {
	OrganizationalUnitRegistrationStatus
}
type PrecheckOrganizationalUnitStatus struct {
	OrganizationalUnitPrecheckStatus
}
type EnableBaselineStatus struct{ BaselineStatus }
type ResetEnabledBaselineStatus struct{ BaselineStatus }
type UpdateEnabledBaselineStatus struct{ BaselineStatus }
type DisableBaselineStatus struct{ BaselineStatus }

func (CreateManagedAccountStatus) DiscriminatorKey() string { return KeyCreateManagedAccountStatus }
func (CreateManagedAccountStatus) EventName() string        { return "CreateManagedAccount" }
func (d CreateManagedAccountStatus) payload() any           { return d.ManagedAccountStatus }

func (UpdateManagedAccountStatus) DiscriminatorKey() string { return KeyUpdateManagedAccountStatus }
func (UpdateManagedAccountStatus) EventName() string        { return "UpdateManagedAccount" }
func (d UpdateManagedAccountStatus) payload() any           { return d.ManagedAccountStatus }

func (EnableGuardrailStatus) DiscriminatorKey() string { return KeyEnableGuardrailStatus }
func (EnableGuardrailStatus) EventName() string        { return "EnableGuardrail" }
func (d EnableGuardrailStatus) payload() any           { return d.GuardrailStatus }

func (DisableGuardrailStatus) DiscriminatorKey() string { return KeyDisableGuardrailStatus }
func (DisableGuardrailStatus) EventName() string        { return "DisableGuardrail" }
func (d DisableGuardrailStatus) payload() any           { return d.GuardrailStatus }

func (SetupLandingZoneStatus) DiscriminatorKey() string { return KeySetupLandingZoneStatus }
func (SetupLandingZoneStatus) EventName() string        { return "SetupLandingZone" }
func (d SetupLandingZoneStatus) payload() any           { return d.LandingZoneStatus }

func (UpdateLandingZoneStatus) DiscriminatorKey() string { return KeyUpdateLandingZoneStatus }
func (UpdateLandingZoneStatus) EventName() string        { return "UpdateLandingZone" }
func (d UpdateLandingZoneStatus) payload() any           { return d.LandingZoneStatus }

func (RegisterOrganizationalUnitStatus) DiscriminatorKey() string {
	return KeyRegisterOrganizationalUnitStatus
}
func (RegisterOrganizationalUnitStatus) EventName() string { return "RegisterOrganizationalUnit" }
func (d RegisterOrganizationalUnitStatus) payload() any {
	return d.OrganizationalUnitRegistrationStatus
}

func (DeregisterOrganizationalUnitStatus) DiscriminatorKey() string {
	return KeyDeregisterOrganizationalUnitStatus
}
func (DeregisterOrganizationalUnitStatus) EventName() string { return "DeregisterOrganizationalUnit" }
func (d DeregisterOrganizationalUnitStatus) payload() any {
	return d.OrganizationalUnitRegistrationStatus
}

func (PrecheckOrganizationalUnitStatus) DiscriminatorKey() string {
	return KeyPrecheckOrganizationalUnitStatus
}
func (PrecheckOrganizationalUnitStatus) EventName() string {
	return "PrecheckOrganizationalUnit"
}
func (d PrecheckOrganizationalUnitStatus) payload() any {
	return d.OrganizationalUnitPrecheckStatus
}

func (EnableBaselineStatus) DiscriminatorKey() string { return KeyEnableBaselineStatus }
func (EnableBaselineStatus) EventName() string        { return "EnableBaseline" }
func (d EnableBaselineStatus) payload() any           { return d.BaselineStatus }

func (ResetEnabledBaselineStatus) DiscriminatorKey() string { return KeyResetEnabledBaselineStatus }
func (ResetEnabledBaselineStatus) EventName() string        { return "ResetEnabledBaseline" }
func (d ResetEnabledBaselineStatus) payload() any           { return d.BaselineStatus }

func (UpdateEnabledBaselineStatus) DiscriminatorKey() string { return KeyUpdateEnabledBaselineStatus }
func (UpdateEnabledBaselineStatus) EventName() string        { return "UpdateEnabledBaseline" }
func (d UpdateEnabledBaselineStatus) payload() any           { return d.BaselineStatus }

func (DisableBaselineStatus) DiscriminatorKey() string { return KeyDisableBaselineStatus }
func (DisableBaselineStatus) EventName() string        { return "DisableBaseline" }
func (d DisableBaselineStatus) payload() any           { return d.BaselineStatus }

type variant struct {
	key    string
	decode func(fields) ServiceEventDetails
}

func tagged[T any](decode func(fields) T, wrap func(T) ServiceEventDetails) func(fields) ServiceEventDetails {
	return func(f fields) ServiceEventDetails {
		return wrap(decode(f))
	}
}

var variants = []variant{
	{KeyCreateManagedAccountStatus, tagged(decodeManagedAccountStatus, func(s ManagedAccountStatus) ServiceEventDetails {
		return CreateManagedAccountStatus{s}
	})},
	{KeyUpdateManagedAccountStatus, tagged(decodeManagedAccountStatus, func(s ManagedAccountStatus) ServiceEventDetails {
		return UpdateManagedAccountStatus{s}
	})},
	{KeyEnableGuardrailStatus, tagged(decodeGuardrailStatus, func(s GuardrailStatus) ServiceEventDetails {
		return EnableGuardrailStatus{s}
	})},
	{KeyDisableGuardrailStatus, tagged(decodeGuardrailStatus, func(s GuardrailStatus) ServiceEventDetails {
		return DisableGuardrailStatus{s}
	})},
	{KeySetupLandingZoneStatus, tagged(decodeLandingZoneStatus, func(s LandingZoneStatus) ServiceEventDetails {
		return SetupLandingZoneStatus{s}
	})},
	{KeyUpdateLandingZoneStatus, tagged(decodeLandingZoneStatus, func(s LandingZoneStatus) ServiceEventDetails {
		return UpdateLandingZoneStatus{s}
	})},
	{KeyRegisterOrganizationalUnitStatus, tagged(decodeOrganizationalUnitRegistrationStatus, func(s OrganizationalUnitRegistrationStatus) ServiceEventDetails {
		return RegisterOrganizationalUnitStatus{s}
	})},
	{KeyDeregisterOrganizationalUnitStatus, tagged(decodeOrganizationalUnitRegistrationStatus, func(s OrganizationalUnitRegistrationStatus) ServiceEventDetails {
		return DeregisterOrganizationalUnitStatus{s}
	})},
	{KeyPrecheckOrganizationalUnitStatus, tagged(decodeOrganizationalUnitPrecheckStatus, func(s OrganizationalUnitPrecheckStatus) ServiceEventDetails {
		return PrecheckOrganizationalUnitStatus{s}
	})},
	{KeyEnableBaselineStatus, tagged(decodeBaselineStatus, func(s BaselineStatus) ServiceEventDetails {
		return EnableBaselineStatus{s}
	})},
	{KeyResetEnabledBaselineStatus, tagged(decodeBaselineStatus, func(s BaselineStatus) ServiceEventDetails {
		return ResetEnabledBaselineStatus{s}
	})},
	{KeyUpdateEnabledBaselineStatus, tagged(decodeBaselineStatus, func(s BaselineStatus) ServiceEventDetails {
		return UpdateEnabledBaselineStatus{s}
	})},
	{KeyDisableBaselineStatus, tagged(decodeBaselineStatus, func(s BaselineStatus) ServiceEventDetails {
		return DisableBaselineStatus{s}
	})},
}

var variantsByKey = func() map[string]variant {
	m := make(map[string]variant, len(variants))
	for _, v := range variants {
		m[v.key] = v
	}
	return m
}()

// Variants returns the recognised discriminator keys in declaration order.
func Variants() []string {
	keys := make([]string, len(variants))
	for i, v := range variants {
		keys[i] = v.key
	}
	return keys
}

// DecodeDetails decodes a serviceEventDetails object on its own.
func DecodeDetails(data []byte) (ServiceEventDetails, error) {
	return decodeDocument(data, decodeDetails)
}

// decodeDetails resolves the variant from the reserved keys present in f. The
// object must hold exactly one key: anything next to a known discriminator is
// reported as an unknown variant rather than dropped.
func decodeDetails(f fields) ServiceEventDetails {
	if f.failed() {
		return nil
	}

	var (
		matched []variant
		values  []gjson.Result
		others  []string
		unknown string
	)
	f.obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if v, ok := variantsByKey[k]; ok {
			matched = append(matched, v)
			values = append(values, value)
			return true
		}
		others = append(others, k)
		if unknown == "" && looksLikeDiscriminator(k) {
			unknown = k
		}
		return true
	})

	if len(matched) == 0 || len(matched) == 1 && len(others) > 0 {
		if unknown == "" && len(others) > 0 {
			unknown = others[0]
		}
		err := &DecodeError{Kind: KindUnknownVariant, Field: f.path}
		if unknown != "" {
			err.Keys = []string{unknown}
		}
		f.fail(err)
		return nil
	}

	if len(matched) > 1 {
		ambiguous := make([]string, len(matched))
		for i, v := range matched {
			ambiguous[i] = v.key
		}
		f.fail(&DecodeError{Kind: KindAmbiguousVariant, Field: f.path, Keys: ambiguous})
		return nil
	}

	v, value := matched[0], values[0]
	if !value.IsObject() {
		f.mismatch(f.at(v.key), "object")
		return nil
	}
	d := v.decode(fields{path: f.at(v.key), obj: value, err: f.err})
	if f.failed() {
		return nil
	}
	return d
}

// looksLikeDiscriminator reports whether key follows the lowerCamelCase
// "...Status" naming the service uses for detail variants.
func looksLikeDiscriminator(key string) bool {
	if !strings.HasSuffix(key, "Status") || len(key) == len("Status") {
		return false
	}
	for i, r := range key {
		if i == 0 && !unicode.IsLower(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// EncodeDetails encodes d as a single-key object.
func EncodeDetails(d ServiceEventDetails) ([]byte, error) {
	if d == nil {
		return nil, errors.New("controltower: nil service event details")
	}

	body, err := json.Marshal(d.payload())
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes([]byte(`{}`), d.DiscriminatorKey(), body)
}

// Outcome returns the state d reports, e.g. SUCCEEDED or FAILED. Baseline
// variants have no state of their own; their status summary is used instead.
func Outcome(d ServiceEventDetails) string {
	if d == nil {
		return ""
	}

	switch p := d.payload().(type) {
	case ManagedAccountStatus:
		return p.State
	case GuardrailStatus:
		return p.State
	case LandingZoneStatus:
		return p.State
	case OrganizationalUnitRegistrationStatus:
		return p.State
	case OrganizationalUnitPrecheckStatus:
		return p.State
	case BaselineStatus:
		return p.EnabledBaselineDetails.StatusSummary.Status
	default:
		return ""
	}
}
