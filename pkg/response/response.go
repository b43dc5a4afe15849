package response

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope of every JSON answer of the API.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Data:       data,
	}
}

func Error(statusCode int, err string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      err,
	}
}

// Raw is the client-side view of Response with Data left undecoded.
type Raw struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func (r Raw) Failed() bool {
	return r.Status == StatusError
}

// Decode unmarshals Data into out. A missing payload leaves out untouched.
func (r Raw) Decode(out interface{}) error {
	if out == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}
