package logging

type securityLogEntry struct {
	OperationName string                   `json:"operationName"`
	Category      string                   `json:"category"`
	Properties    securityLogEntryProperty `json:"properties"`
}

type securityLogEntryProperty struct {
	ClientIP      string                  `json:"clientIp"`
	RequestURI    string                  `json:"requestUri"`
	TransactionID string                  `json:"transactionId"`
	Action        string                  `json:"action"`
	Message       string                  `json:"message"`
	Details       securityLogDetailsEntry `json:"details"`
}

type securityLogDetailsEntry struct {
	MatchData   interface{} `json:"matchData,omitempty"`
	Diagnostics interface{} `json:"diagnostics,omitempty"`
	Message     string      `json:"message,omitempty"`
}

const (
	logOperationName = "WebShieldFirewall"
	logCategory      = "WebShieldFirewallLog"

	actionDetected = "Detected"
	actionBlocked  = "Blocked"
)
