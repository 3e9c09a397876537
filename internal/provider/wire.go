package provider

import "encoding/json"

const jsonrpcVersion = "2.0"

// message covers requests, responses and notifications. Notifications carry a method and no id.
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (m *message) isResponse() bool { return m.ID != nil && m.Method == "" }

func (m *message) isNotification() bool { return m.ID == nil && m.Method != "" }

// decodeParams turns a JSON params array into plain Go values for a backend.
func decodeParams(raw json.RawMessage) ([]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var params []any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}
