package common

const (
	// MaxRequestBody limits JSON request bodies for the update endpoints.
	MaxRequestBody = 1 << 20
)
