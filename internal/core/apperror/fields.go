package apperror

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldErrors is an ordered list of field errors collected during validation.
type FieldErrors []FieldError

// Add appends a field error.
func (fe *FieldErrors) Add(field, code, message string) {
	*fe = append(*fe, FieldError{Field: field, Code: code, Message: message})
}

// Empty reports whether no errors were collected.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Err converts the list into a validation AppError, or nil when the list is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	list := make([]FieldError, len(fe))
	copy(list, fe)
	return NewValidation("validation failed").WithDetail("errors", list)
}

// FieldErrorsOf extracts the field error list carried by a validation error.
func FieldErrorsOf(err error) FieldErrors {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != CodeValidation {
		return nil
	}
	list, _ := appErr.Details["errors"].([]FieldError)
	return FieldErrors(list)
}
