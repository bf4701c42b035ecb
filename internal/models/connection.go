package models

// ConnectionState достижимость удаленного бэкенда
type ConnectionState string

const (
	StateUnknown      ConnectionState = "unknown"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

func (s ConnectionState) String() string {
	if s == "" {
		return string(StateUnknown)
	}
	return string(s)
}
