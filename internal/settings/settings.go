// Package settings declares the service's configuration schema and decodes
// a validated config.Config into the typed App struct the rest of the code
// reads.
package settings

import (
	"github.com/yanizio/confstack/internal/config"
)

// App is the typed, read-only view of the configuration.  Secret fields
// stay wrapped; call Reveal at the point of use.
type App struct {
	ServiceName string     `json:"SERVICE_NAME" yaml:"SERVICE_NAME"`
	DB          Database   `json:"DB" yaml:"DB"`
	AWS         AWS        `json:"AWS_CONFIG" yaml:"AWS_CONFIG"`
	LookupData  LookupData `json:"LOOKUP_DATA" yaml:"LOOKUP_DATA"`
	Logging     Logging    `json:"LOGGING" yaml:"LOGGING"`
}

// Database holds connection details and pool sizing.
type Database struct {
	Name        string        `json:"DB_NAME" yaml:"DB_NAME"`
	SchemaNames []string      `json:"SCHEMA_NAMES" yaml:"SCHEMA_NAMES"`
	Username    config.Secret `json:"USERNAME" yaml:"USERNAME"`
	Password    config.Secret `json:"PASSWORD" yaml:"PASSWORD"`
	Host        string        `json:"HOST" yaml:"HOST"`
	Port        int           `json:"PORT" yaml:"PORT"`
	Perf        DBPerf        `json:"PERF" yaml:"PERF"`
}

// DBPerf sizes the connection pool.
type DBPerf struct {
	PoolSize       int `json:"POOL_SIZE" yaml:"POOL_SIZE"`
	WebConcurrency int `json:"WEB_CONCURRENCY" yaml:"WEB_CONCURRENCY"`
}

// AWS holds credentials.  Nil means "not configured".
type AWS struct {
	Profile         *string        `json:"AWS_PROFILE" yaml:"AWS_PROFILE"`
	AccessKeyID     *config.Secret `json:"AWS_ACCESS_KEY_ID" yaml:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey *config.Secret `json:"AWS_SECRET_ACCESS_KEY" yaml:"AWS_SECRET_ACCESS_KEY"`
	DefaultRegion   string         `json:"AWS_DEFAULT_REGION" yaml:"AWS_DEFAULT_REGION"`
}

// UseProfile reports whether profile-based authentication applies.
func (a AWS) UseProfile() bool { return a.Profile != nil }

// UseKeys reports whether key-based authentication applies.
func (a AWS) UseKeys() bool { return a.AccessKeyID != nil && a.SecretAccessKey != nil }

// LookupData lists required data files (absolute paths).
type LookupData struct {
	DataFile1 string `json:"DATA_FILE_1" yaml:"DATA_FILE_1"`
}

// Logging configures internal/logger.
type Logging struct {
	Level      string `json:"LOG_LEVEL" yaml:"LOG_LEVEL"`
	Format     string `json:"LOG_FORMAT" yaml:"LOG_FORMAT"`
	DateFormat string `json:"LOG_DATE_FORMAT" yaml:"LOG_DATE_FORMAT"`
	Dir        string `json:"LOG_DIR,omitempty" yaml:"LOG_DIR,omitempty"`
	Encoding   string `json:"LOG_ENCODING" yaml:"LOG_ENCODING"`
}

// Decode maps a validated config onto App.  It is the decode func for
// config.NewLoader and never fails on a config validated by Schema().
func Decode(c *config.Config) (*App, error) {
	a := &App{
		ServiceName: c.String(KeyServiceName),
		DB: Database{
			Name:        c.String(KeyDBName),
			SchemaNames: c.Strings(KeyDBSchemaNames),
			Host:        c.String(KeyDBHost),
			Port:        c.Int(KeyDBPort),
			Perf: DBPerf{
				PoolSize:       c.Int(KeyDBPoolSize),
				WebConcurrency: c.Int(KeyDBWebConcurrency),
			},
		},
		AWS: AWS{
			DefaultRegion: c.String(KeyAWSRegion),
		},
		LookupData: LookupData{DataFile1: c.Path(KeyDataFile1)},
		Logging: Logging{
			Level:      c.String(KeyLogLevel),
			Format:     c.String(KeyLogFormat),
			DateFormat: c.String(KeyLogDateFormat),
			Dir:        c.Path(KeyLogDir),
			Encoding:   c.String(KeyLogEncoding),
		},
	}
	a.DB.Username, _ = c.Secret(KeyDBUsername)
	a.DB.Password, _ = c.Secret(KeyDBPassword)

	if c.Has(KeyAWSProfile) {
		p := c.String(KeyAWSProfile)
		a.AWS.Profile = &p
	}
	if s, ok := c.Secret(KeyAWSAccessKey); ok {
		a.AWS.AccessKeyID = &s
	}
	if s, ok := c.Secret(KeyAWSSecretKey); ok {
		a.AWS.SecretAccessKey = &s
	}
	return a, nil
}

// NewLoader returns a loader for the application schema.
func NewLoader(opts ...config.Option) *config.Loader[*App] {
	return config.NewLoader(Schema(), Decode, opts...)
}
