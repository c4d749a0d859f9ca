package domain

// Status tags a Result as success or error
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Failure is the error payload of a Result
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is the tagged outcome of one request: exactly one of Data or Error is set.
type Result struct {
	Status Status   `json:"status"`
	Data   any      `json:"data,omitempty"`
	Error  *Failure `json:"error,omitempty"`
}

// Succeed wraps a success payload
func Succeed(data any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// Fail wraps a failure payload
func Fail(kind, message string) Result {
	return Result{Status: StatusError, Error: &Failure{Kind: kind, Message: message}}
}

// OK reports whether the result is a success
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
