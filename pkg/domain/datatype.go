package domain

import dErrors "trustgrid/pkg/domain-errors"

// DataType is the enumerated category of personal data an organization may
// request access to.
// Invariant: the value must be one of the supported categories.
//
// Usage: construct via ParseDataType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type DataType string

// Supported data categories, mirroring the citizen profile fields.
const (
	DataTypePhoneNumber       DataType = "phone_number"
	DataTypeEmail             DataType = "email"
	DataTypeLocation          DataType = "location"
	DataTypeDateOfBirth       DataType = "date_of_birth"
	DataTypeAddress           DataType = "address"
	DataTypeBVN               DataType = "bvn"
	DataTypeNIN               DataType = "nin"
	DataTypePassportNumber    DataType = "passport_number"
	DataTypeDriversLicense    DataType = "drivers_license"
	DataTypeBankAccountNumber DataType = "bank_account_number"
	DataTypeMonthlyIncome     DataType = "monthly_income"
	DataTypeMedicalConditions DataType = "medical_conditions"
)

// validDataTypes is the single source of truth for supported categories.
var validDataTypes = map[DataType]bool{
	DataTypePhoneNumber:       true,
	DataTypeEmail:             true,
	DataTypeLocation:          true,
	DataTypeDateOfBirth:       true,
	DataTypeAddress:           true,
	DataTypeBVN:               true,
	DataTypeNIN:               true,
	DataTypePassportNumber:    true,
	DataTypeDriversLicense:    true,
	DataTypeBankAccountNumber: true,
	DataTypeMonthlyIncome:     true,
	DataTypeMedicalConditions: true,
}

// ParseDataType constructs a DataType from external input.
//
// Errors: returns CodeBadRequest when the value is empty or unsupported.
func ParseDataType(s string) (DataType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "data_type cannot be empty")
	}
	d := DataType(s)
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported data_type: "+s)
	}
	return d, nil
}

// IsValid checks if the data type is one of the supported enum values.
func (d DataType) IsValid() bool {
	return validDataTypes[d]
}

// Restricted reports whether the category is a regulated national identifier.
// The rule oracle only permits these for Fintech and Healthcare organizations.
func (d DataType) Restricted() bool {
	return d == DataTypeBVN || d == DataTypeNIN
}

// String returns the string representation of the data type.
func (d DataType) String() string {
	return string(d)
}
