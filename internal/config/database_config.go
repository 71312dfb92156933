package config

// DatabaseOptions is the explicit connection configuration passed to the
// connection factory at process start.
type DatabaseOptions struct {
	URI               string
	Database          string
	Username          string
	Password          string
	TLSEnabled        bool
	CAFilePath        string
	CertFilePath      string
	AllowInvalidCerts bool
}

type DatabaseConfig interface {
	GetDatabaseOptions() DatabaseOptions
}

type Database struct{}

var _ DatabaseConfig = Database{}

func (Database) GetDatabaseOptions() DatabaseOptions {
	return DatabaseOptions{
		URI:               GetEnv("MONGO_DB_URI", "mongodb://localhost:27017"),
		Database:          GetEnv("MONGO_DB_NAME", "famaserve"),
		Username:          GetEnv("MONGO_DB_USER", ""),
		Password:          GetEnv("MONGO_DB_PASS", ""),
		TLSEnabled:        GetEnvBool("MONGO_TLS_ENABLED", false),
		CAFilePath:        GetEnv("MONGO_TLS_CA_FILE", ""),
		CertFilePath:      GetEnv("MONGO_TLS_CERT_FILE", ""),
		AllowInvalidCerts: GetEnvBool("MONGO_TLS_ALLOW_INVALID_CERTS", false),
	}
}
