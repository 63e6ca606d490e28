package record

// Columns is the number of fields in the SMDR header.
const Columns = 36

var header = [Columns]string{
	"Call Start Time",
	"Connected Time",
	"Ring Time",
	"Caller",
	"Direction",
	"Called Number",
	"Dialed Number",
	"Account Code",
	"Is Internal",
	"Call ID",
	"Continuation",
	"Party1 Device",
	"Party1 Name",
	"Party2 Device",
	"Party2 Name",
	"Hold Time",
	"Park Time",
	"Authorization Valid",
	"Authorization Code",
	"User Charged",
	"Call Charge",
	"Currency",
	"Amount at Last User Change",
	"Call Units",
	"Units at Last User Change",
	"Cost per Unit",
	"Mark Up",
	"External Targeting Cause",
	"External Targeter ID",
	"Calling Party Server IP Address",
	"Unique Call ID for the Caller Extension",
	"Called Party Server IP Address",
	"Unique Call ID for the Called Extension",
	"SMDR Record Time",
	"Caller Consent Directive",
	"Calling Number Verification",
}

// Header returns a fresh copy of the header row written at the top of
// every new output log.
func Header() Row {
	row := make(Row, Columns)
	copy(row, header[:])
	return row
}
