package server

import (
	"encoding/json"
	"net/http"
)

func createResponse(success bool, data interface{}, errorMsg string) ResponseModel {
	response := ResponseModel{
		Success: success,
		Data:    data,
		Error:   errorMsg,
	}
	return response
}

// SendResponse writes a 200 response.
func SendResponse(w http.ResponseWriter, success bool, data interface{}, errorMsg string) {
	SendResponseWithHeader(w, success, data, errorMsg, 0, nil)
}

// SendResponseWithHeader writes a response with extra headers. A failed
// response uses statusCode, or 400 when it is zero.
func SendResponseWithHeader(w http.ResponseWriter, success bool, data interface{}, errorMsg string, statusCode int, payloadHeaders map[string]string) {
	response := createResponse(success, data, errorMsg)
	w.Header().Set("Content-Type", "application/json")

	for key, value := range payloadHeaders {
		w.Header().Set(key, value)
	}

	if success {
		w.WriteHeader(http.StatusOK)
	} else {
		if statusCode != 0 {
			w.WriteHeader(statusCode)
		} else {
			w.WriteHeader(http.StatusBadRequest)
		}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"success":false,"error":"Internal Server Error"}`, http.StatusInternalServerError)
	}
}

// SendError writes a failed response with the given status.
func SendError(w http.ResponseWriter, statusCode int, err error) {
	SendResponseWithHeader(w, false, nil, err.Error(), statusCode, nil)
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
