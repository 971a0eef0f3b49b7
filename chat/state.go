package chat

// State is a step of the request lifecycle.
type State int

const (
	StateIdle State = iota
	StateNetworkCheck
	StateReconnecting
	StateSending
	StateAwaitingResponse
	StateSuccess
	StateHTTPError
	StateParseError
	StateTransportError
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateNetworkCheck:     "network_check",
	StateReconnecting:     "reconnecting",
	StateSending:          "sending",
	StateAwaitingResponse: "awaiting_response",
	StateSuccess:          "success",
	StateHTTPError:        "http_error",
	StateParseError:       "parse_error",
	StateTransportError:   "transport_error",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s ends a request.
func (s State) Terminal() bool {
	return s >= StateSuccess
}
