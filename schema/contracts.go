package schema

// Field names shared by the Data and Message contracts.
const (
	FieldData         = "data"
	FieldTextKey      = "text_key"
	FieldDefaultValue = "default_value"

	FieldText       = "text"
	FieldSender     = "sender"
	FieldSenderName = "sender_name"
	FieldSessionID  = "session_id"
	FieldFlowID     = "flow_id"
	FieldID         = "id"
	FieldTimestamp  = "timestamp"
	FieldFiles      = "files"
	FieldProperties = "properties"
	FieldCategory   = "category"
	FieldError      = "error"
	FieldEdit       = "edit"
)

// Logical type names.
const (
	DataName    = "Data"
	MessageName = "Message"
)

// DefaultTextKey is the data key read when a record carries no text_key.
const DefaultTextKey = "text"

// The contracts every backend's Data and Message types must satisfy. They are
// the minimal field sets consumers may rely on; backends declare their own
// Types with the same names and richer field sets.
var (
	Data = Define(DataName, nil,
		Req(FieldData),
		Opt(FieldTextKey),
		Opt(FieldDefaultValue),
	)

	Message = Define(MessageName, Data,
		Req(FieldText),
		Opt(FieldSender),
		Opt(FieldSenderName),
		Opt(FieldSessionID),
		Opt(FieldFlowID),
		Opt(FieldID),
		Opt(FieldTimestamp),
		Opt(FieldFiles),
		Opt(FieldProperties),
		Opt(FieldCategory),
		Opt(FieldError),
		Opt(FieldEdit),
	)
)
