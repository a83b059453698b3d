package emv

import "github.com/gregLibert/card-explorer/pkg/tlv"

// Tags used to drive PSE discovery.
const (
	TagApplicationIdentifier uint32 = 0x4F
	TagApplicationTemplate   uint32 = 0x61
	TagRecordTemplate        uint32 = 0x70
	TagResponseFormat1       uint32 = 0x80
	TagResponseFormat2       uint32 = 0x77
	TagSFI                   uint32 = 0x88
	TagApplicationFileLoc    uint32 = 0x94
)

// TagName returns the EMV name of tag. Tags missing from the dictionary are
// not an error; ok is false.
func TagName(tag uint32) (name string, ok bool) {
	name, ok = tagNames[tag]
	return name, ok
}

// Describe renders a decoded tree with EMV tag names.
func Describe(n *tlv.Node) string {
	return tlv.Format(n, TagName)
}

var tagNames = map[uint32]string{
	0x42:   "ISSUER_IDENTIFICATION_NUMBER",
	0x4F:   "APPLICATION_IDENTIFIER",
	0x50:   "APPLICATION_LABEL",
	0x52:   "COMMAND_TO_PERFORM",
	0x56:   "TRACK_1_DATA",
	0x57:   "TRACK_2_EQUIVALENT_DATA",
	0x5A:   "PAN",
	0x5D:   "DIRECTORY_DEFINITION_FILE_NAME",
	0x5F20: "CARDHOLDER_NAME",
	0x5F24: "APPLICATION_EXPIRATION_DATE",
	0x5F25: "APPLICATION_EFFECTIVE_DATE",
	0x5F28: "ISSUER_COUNTRY_CODE",
	0x5F2A: "TRANSACTION_CURRENCY_CODE",
	0x5F2D: "LANGUAGE_PREFERENCE",
	0x5F30: "SERVICE_CODE",
	0x5F34: "PAN_SEQUENCE_NUMBER",
	0x5F36: "TRANSACTION_CURRENCY_EXPONENT",
	0x5F50: "ISSUER_URL",
	0x5F53: "IBAN",
	0x5F54: "BANK_IDENTIFIER_CODE",
	0x5F55: "ISSUER_COUNTRY_CODE_ALPHA2",
	0x5F56: "ISSUER_COUNTRY_CODE_ALPHA3",
	0x5F57: "ACCOUNT_TYPE",
	0x61:   "APPLICATION_TEMPLATE",
	0x6F:   "FCI_TEMPLATE",
	0x70:   "READ_RECORD_RESPONSE_TEMPLATE",
	0x71:   "ISSUER_SCRIPT_TEMPLATE_1",
	0x72:   "ISSUER_SCRIPT_TEMPLATE_2",
	0x73:   "DIRECTORY_DISCRETIONARY_TEMPLATE",
	0x77:   "RESPONSE_MESSAGE_TEMPLATE_FORMAT_2",
	0x80:   "RESPONSE_MESSAGE_TEMPLATE_FORMAT_1",
	0x81:   "AMOUNT_AUTHORISED_BINARY",
	0x82:   "APPLICATION_INTERCHANGE_PROFILE",
	0x83:   "COMMAND_TEMPLATE",
	0x84:   "DEDICATED_FILE_NAME",
	0x86:   "ISSUER_SCRIPT_COMMAND",
	0x87:   "APPLICATION_PRIORITY_INDICATOR",
	0x88:   "SFI",
	0x89:   "AUTHORISATION_CODE",
	0x8A:   "AUTHORISATION_RESPONSE_CODE",
	0x8C:   "CDOL_1",
	0x8D:   "CDOL_2",
	0x8E:   "CVM_LIST",
	0x8F:   "CA_PUBLIC_KEY_INDEX",
	0x90:   "ISSUER_PUBLIC_KEY_CERTIFICATE",
	0x91:   "ISSUER_AUTHENTICATION_DATA",
	0x92:   "ISSUER_PUBLIC_KEY_REMAINDER",
	0x93:   "SIGNED_STATIC_APPLICATION_DATA",
	0x94:   "APPLICATION_FILE_LOCATOR",
	0x95:   "TERMINAL_VERIFICATION_RESULTS",
	0x97:   "TDOL",
	0x98:   "TC_HASH_VALUE",
	0x99:   "TRANSACTION_PIN_DATA",
	0x9A:   "TRANSACTION_DATE",
	0x9B:   "TRANSACTION_STATUS_INFORMATION",
	0x9C:   "TRANSACTION_TYPE",
	0x9D:   "DIRECTORY_DEFINITION_FILE",
	0x9F01: "ACQUIRER_IDENTIFIER",
	0x9F02: "AMOUNT_AUTHORISED_NUMERIC",
	0x9F03: "AMOUNT_OTHER_NUMERIC",
	0x9F04: "AMOUNT_OTHER_BINARY",
	0x9F05: "APPLICATION_DISCRETIONARY_DATA",
	0x9F06: "AID_TERMINAL",
	0x9F07: "APPLICATION_USAGE_CONTROL",
	0x9F08: "APPLICATION_VERSION_NUMBER",
	0x9F09: "APPLICATION_VERSION_NUMBER_TERMINAL",
	0x9F0A: "APPLICATION_SELECTION_REGISTERED_PROPRIETARY_DATA",
	0x9F0B: "CARDHOLDER_NAME_EXTENDED",
	0x9F0C: "ISSUER_IDENTIFICATION_NUMBER_EXTENDED",
	0x9F0D: "IAC_DEFAULT",
	0x9F0E: "IAC_DENIAL",
	0x9F0F: "IAC_ONLINE",
	0x9F10: "ISSUER_APPLICATION_DATA",
	0x9F11: "ISSUER_CODE_TABLE_INDEX",
	0x9F12: "APPLICATION_PREFERRED_NAME",
	0x9F13: "LAST_ONLINE_ATC_REGISTER",
	0x9F14: "LOWER_CONSECUTIVE_OFFLINE_LIMIT",
	0x9F15: "MERCHANT_CATEGORY_CODE",
	0x9F16: "MERCHANT_IDENTIFIER",
	0x9F17: "PIN_TRY_COUNTER",
	0x9F18: "ISSUER_SCRIPT_IDENTIFIER",
	0x9F19: "TOKEN_REQUESTOR_ID",
	0x9F1A: "TERMINAL_COUNTRY_CODE",
	0x9F1B: "TERMINAL_FLOOR_LIMIT",
	0x9F1C: "TERMINAL_IDENTIFICATION",
	0x9F1D: "TERMINAL_RISK_MANAGEMENT_DATA",
	0x9F1E: "IFD_SERIAL_NUMBER",
	0x9F1F: "TRACK_1_DISCRETIONARY_DATA",
	0x9F20: "TRACK_2_DISCRETIONARY_DATA",
	0x9F21: "TRANSACTION_TIME",
	0x9F22: "CA_PUBLIC_KEY_INDEX_TERMINAL",
	0x9F23: "UPPER_CONSECUTIVE_OFFLINE_LIMIT",
	0x9F24: "PAYMENT_ACCOUNT_REFERENCE",
	0x9F26: "APPLICATION_CRYPTOGRAM",
	0x9F27: "CRYPTOGRAM_INFORMATION_DATA",
	0x9F2D: "ICC_PIN_ENCIPHERMENT_PUBLIC_KEY_CERTIFICATE",
	0x9F2E: "ICC_PIN_ENCIPHERMENT_PUBLIC_KEY_EXPONENT",
	0x9F2F: "ICC_PIN_ENCIPHERMENT_PUBLIC_KEY_REMAINDER",
	0x9F32: "ISSUER_PUBLIC_KEY_EXPONENT",
	0x9F33: "TERMINAL_CAPABILITIES",
	0x9F34: "CVM_RESULTS",
	0x9F35: "TERMINAL_TYPE",
	0x9F36: "APPLICATION_TRANSACTION_COUNTER",
	0x9F37: "UNPREDICTABLE_NUMBER",
	0x9F38: "PDOL",
	0x9F39: "POS_ENTRY_MODE",
	0x9F3A: "AMOUNT_REFERENCE_CURRENCY",
	0x9F3B: "APPLICATION_REFERENCE_CURRENCY",
	0x9F3C: "TRANSACTION_REFERENCE_CURRENCY_CODE",
	0x9F3D: "TRANSACTION_REFERENCE_CURRENCY_EXPONENT",
	0x9F40: "ADDITIONAL_TERMINAL_CAPABILITIES",
	0x9F41: "TRANSACTION_SEQUENCE_COUNTER",
	0x9F42: "APPLICATION_CURRENCY_CODE",
	0x9F43: "APPLICATION_REFERENCE_CURRENCY_EXPONENT",
	0x9F44: "APPLICATION_CURRENCY_EXPONENT",
	0x9F45: "DATA_AUTHENTICATION_CODE",
	0x9F46: "ICC_PUBLIC_KEY_CERTIFICATE",
	0x9F47: "ICC_PUBLIC_KEY_EXPONENT",
	0x9F48: "ICC_PUBLIC_KEY_REMAINDER",
	0x9F49: "DDOL",
	0x9F4A: "STATIC_DATA_AUTHENTICATION_TAG_LIST",
	0x9F4B: "SIGNED_DYNAMIC_APPLICATION_DATA",
	0x9F4C: "ICC_DYNAMIC_NUMBER",
	0x9F4D: "LOG_ENTRY",
	0x9F4E: "MERCHANT_NAME_AND_LOCATION",
	0x9F4F: "LOG_FORMAT",
	0x9F5D: "AVAILABLE_OFFLINE_SPENDING_AMOUNT",
	0x9F66: "TERMINAL_TRANSACTION_QUALIFIERS",
	0x9F6C: "CARD_TRANSACTION_QUALIFIERS",
	0x9F6E: "FORM_FACTOR_INDICATOR",
	0x9F7C: "CUSTOMER_EXCLUSIVE_DATA",
	0xA5:   "FCI_PROPRIETARY_TEMPLATE",
	0xBF0C: "FCI_ISSUER_DISCRETIONARY_DATA",
}
