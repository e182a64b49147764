package types

// HTTP headers set by the upstream authentication proxy and echoed on
// responses
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderOrganizationID = "X-Organization-ID"
	HeaderLivemode       = "X-Livemode"
	HeaderUserID         = "X-User-ID"
)
