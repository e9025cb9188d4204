package inicis

const (
	TestMID     = "INIpayTest"
	TestSignKey = "SU5JTElURV9UUklQTEVERVNfS0VZU1RS"

	ProdBaseURL = "https://iniapi.inicis.com"
	TestBaseURL = "https://stginiapi.inicis.com"
)

// Config represents the configuration for the Inicis client
type Config struct {
	// MID is the merchant id issued by Inicis
	MID string

	// SignKey is used for the web-standard payment signatures
	SignKey string

	// APIKey is the INIAPI key used for refund hashes
	APIKey string

	// BaseURL is the INIAPI base URL
	BaseURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MID == "" {
		return ErrInvalidRequest
	}
	if c.SignKey == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	return nil
}
