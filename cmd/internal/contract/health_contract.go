package contract

const (
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"

	ProviderReachable   = "reachable"
	ProviderUnreachable = "unreachable"
)

type HealthResponse struct {
	OK        bool   `json:"ok"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Version   string `json:"version,omitempty"`
}

type ProviderHealthResponse struct {
	Provider string `json:"provider"`
	BaseURL  string `json:"baseUrl"`
}
