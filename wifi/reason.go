package wifi

import "fmt"

// ReasonCode explains why the platform failed or refused an operation.
type ReasonCode uint32

const (
	reasonACBase        ReasonCode = 0x20000
	reasonACConnectBase ReasonCode = 0x28000
	reasonMSMBase       ReasonCode = 0x30000
	reasonMSMConnBase   ReasonCode = 0x38000
	reasonProfileBase   ReasonCode = 0x80000
)

const (
	ReasonSuccess ReasonCode = 0
	ReasonUnknown ReasonCode = 0x10001

	ReasonNetworkNotCompatible ReasonCode = reasonACBase + 1
	ReasonProfileNotCompatible ReasonCode = reasonACBase + 2

	ReasonNoAutoConnection         ReasonCode = reasonACConnectBase + 1
	ReasonNotVisible               ReasonCode = reasonACConnectBase + 2
	ReasonGPDenied                 ReasonCode = reasonACConnectBase + 3
	ReasonUserDenied               ReasonCode = reasonACConnectBase + 4
	ReasonBSSTypeNotAllowed        ReasonCode = reasonACConnectBase + 5
	ReasonInFailedList             ReasonCode = reasonACConnectBase + 6
	ReasonInBlockedList            ReasonCode = reasonACConnectBase + 7
	ReasonSSIDListTooLong          ReasonCode = reasonACConnectBase + 8
	ReasonConnectCallFail          ReasonCode = reasonACConnectBase + 9
	ReasonScanCallFail             ReasonCode = reasonACConnectBase + 10
	ReasonNetworkNotAvailable      ReasonCode = reasonACConnectBase + 11
	ReasonProfileChangedOrDeleted  ReasonCode = reasonACConnectBase + 12
	ReasonKeyMismatch              ReasonCode = reasonACConnectBase + 13
	ReasonUserNotRespond           ReasonCode = reasonACConnectBase + 14

	ReasonUnsupportedSecuritySetByOS ReasonCode = reasonMSMBase + 1
	ReasonUnsupportedSecuritySet     ReasonCode = reasonMSMBase + 2
	ReasonBSSTypeUnmatch             ReasonCode = reasonMSMBase + 3
	ReasonPhyTypeUnmatch             ReasonCode = reasonMSMBase + 4
	ReasonDatarateUnmatch            ReasonCode = reasonMSMBase + 5

	ReasonUserCancelled            ReasonCode = reasonMSMConnBase + 1
	ReasonAssociationFailure       ReasonCode = reasonMSMConnBase + 2
	ReasonAssociationTimeout       ReasonCode = reasonMSMConnBase + 3
	ReasonPreSecurityFailure       ReasonCode = reasonMSMConnBase + 4
	ReasonStartSecurityFailure     ReasonCode = reasonMSMConnBase + 5
	ReasonSecurityFailure          ReasonCode = reasonMSMConnBase + 6
	ReasonSecurityTimeout          ReasonCode = reasonMSMConnBase + 7
	ReasonRoamingFailure           ReasonCode = reasonMSMConnBase + 8
	ReasonRoamingSecurityFailure   ReasonCode = reasonMSMConnBase + 9
	ReasonAdhocSecurityFailure     ReasonCode = reasonMSMConnBase + 10
	ReasonDriverDisconnected       ReasonCode = reasonMSMConnBase + 11
	ReasonDriverOperationFailure   ReasonCode = reasonMSMConnBase + 12
	ReasonIHVNotAvailable          ReasonCode = reasonMSMConnBase + 13
	ReasonIHVNotResponding         ReasonCode = reasonMSMConnBase + 14
	ReasonDisconnectTimeout        ReasonCode = reasonMSMConnBase + 15
	ReasonInternalFailure          ReasonCode = reasonMSMConnBase + 16
	ReasonUIRequestTimeout         ReasonCode = reasonMSMConnBase + 17
	ReasonTooManySecurityAttempts  ReasonCode = reasonMSMConnBase + 18

	ReasonInvalidProfileSchema              ReasonCode = reasonProfileBase + 1
	ReasonProfileMissing                    ReasonCode = reasonProfileBase + 2
	ReasonInvalidProfileName                ReasonCode = reasonProfileBase + 3
	ReasonInvalidProfileType                ReasonCode = reasonProfileBase + 4
	ReasonInvalidPhyType                    ReasonCode = reasonProfileBase + 5
	ReasonMSMSecurityMissing                ReasonCode = reasonProfileBase + 6
	ReasonIHVSecurityNotSupported           ReasonCode = reasonProfileBase + 7
	ReasonIHVOUIMismatch                    ReasonCode = reasonProfileBase + 8
	ReasonIHVOUIMissing                     ReasonCode = reasonProfileBase + 9
	ReasonIHVSettingsMissing                ReasonCode = reasonProfileBase + 10
	ReasonConflictSecurity                  ReasonCode = reasonProfileBase + 11
	ReasonSecurityMissing                   ReasonCode = reasonProfileBase + 12
	ReasonInvalidBSSType                    ReasonCode = reasonProfileBase + 13
	ReasonInvalidAdhocConnectionMode        ReasonCode = reasonProfileBase + 14
	ReasonNonBroadcastSetForAdhoc           ReasonCode = reasonProfileBase + 15
	ReasonAutoSwitchSetForAdhoc             ReasonCode = reasonProfileBase + 16
	ReasonAutoSwitchSetForManualConnection  ReasonCode = reasonProfileBase + 17
	ReasonIHVSecurityOneXMissing            ReasonCode = reasonProfileBase + 18
	ReasonProfileSSIDInvalid                ReasonCode = reasonProfileBase + 19
	ReasonTooManySSID                       ReasonCode = reasonProfileBase + 20
)

var reasonNames = map[ReasonCode]string{
	ReasonSuccess: "success",
	ReasonUnknown: "unknown",

	ReasonNetworkNotCompatible: "network not compatible",
	ReasonProfileNotCompatible: "profile not compatible",

	ReasonNoAutoConnection:        "no auto connection",
	ReasonNotVisible:              "network not visible",
	ReasonGPDenied:                "denied by group policy",
	ReasonUserDenied:              "denied by user",
	ReasonBSSTypeNotAllowed:       "BSS type not allowed",
	ReasonInFailedList:            "network in failed list",
	ReasonInBlockedList:           "network in blocked list",
	ReasonSSIDListTooLong:         "SSID list too long",
	ReasonConnectCallFail:         "connect call failed",
	ReasonScanCallFail:            "scan call failed",
	ReasonNetworkNotAvailable:     "network not available",
	ReasonProfileChangedOrDeleted: "profile changed or deleted",
	ReasonKeyMismatch:             "key mismatch",
	ReasonUserNotRespond:          "user did not respond",

	ReasonUnsupportedSecuritySetByOS: "security set not supported by OS",
	ReasonUnsupportedSecuritySet:     "security set not supported",
	ReasonBSSTypeUnmatch:             "BSS type mismatch",
	ReasonPhyTypeUnmatch:             "PHY type mismatch",
	ReasonDatarateUnmatch:            "data rate mismatch",

	ReasonUserCancelled:           "cancelled by user",
	ReasonAssociationFailure:      "association failed",
	ReasonAssociationTimeout:      "association timed out",
	ReasonPreSecurityFailure:      "pre-security failure",
	ReasonStartSecurityFailure:    "failed to start security",
	ReasonSecurityFailure:         "security failure",
	ReasonSecurityTimeout:         "security timed out",
	ReasonRoamingFailure:          "roaming failed",
	ReasonRoamingSecurityFailure:  "roaming security failure",
	ReasonAdhocSecurityFailure:    "ad hoc security failure",
	ReasonDriverDisconnected:      "driver disconnected",
	ReasonDriverOperationFailure:  "driver operation failed",
	ReasonIHVNotAvailable:         "IHV service not available",
	ReasonIHVNotResponding:        "IHV service not responding",
	ReasonDisconnectTimeout:       "disconnect timed out",
	ReasonInternalFailure:         "internal failure",
	ReasonUIRequestTimeout:        "UI request timed out",
	ReasonTooManySecurityAttempts: "too many security attempts",

	ReasonInvalidProfileSchema:             "invalid profile schema",
	ReasonProfileMissing:                   "profile missing",
	ReasonInvalidProfileName:               "invalid profile name",
	ReasonInvalidProfileType:               "invalid profile type",
	ReasonInvalidPhyType:                   "invalid PHY type",
	ReasonMSMSecurityMissing:               "MSM security missing",
	ReasonIHVSecurityNotSupported:          "IHV security not supported",
	ReasonIHVOUIMismatch:                   "IHV OUI mismatch",
	ReasonIHVOUIMissing:                    "IHV OUI missing",
	ReasonIHVSettingsMissing:               "IHV settings missing",
	ReasonConflictSecurity:                 "conflicting security settings",
	ReasonSecurityMissing:                  "security missing",
	ReasonInvalidBSSType:                   "invalid BSS type",
	ReasonInvalidAdhocConnectionMode:       "invalid ad hoc connection mode",
	ReasonNonBroadcastSetForAdhoc:          "non-broadcast set for ad hoc",
	ReasonAutoSwitchSetForAdhoc:            "auto switch set for ad hoc",
	ReasonAutoSwitchSetForManualConnection: "auto switch set for manual connection",
	ReasonIHVSecurityOneXMissing:           "IHV 802.1X security missing",
	ReasonProfileSSIDInvalid:               "profile SSID invalid",
	ReasonTooManySSID:                      "too many SSIDs",
}

// Known reports whether the code is one of the defined reason codes.
func (r ReasonCode) Known() bool {
	_, ok := reasonNames[r]
	return ok
}

func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason 0x%x", uint32(r))
}
