package validator

// Validator validates a struct and returns an error describing every failed field.
type Validator interface {
	Validate(data any) error
}
