// internal/settings/schema.go
//
// Application schema.
//
// Context
// -------
// Every key the service reads is declared here, with its type, default, and
// validation.  Flat sources spell keys with "__":
//
//	SERVICE_NAME
//	DB__DB_NAME  DB__SCHEMA_NAMES  DB__USERNAME  DB__PASSWORD  DB__HOST  DB__PORT
//	DB__PERF__POOL_SIZE  DB__PERF__WEB_CONCURRENCY
//	AWS_CONFIG__AWS_PROFILE  AWS_CONFIG__AWS_ACCESS_KEY_ID
//	AWS_CONFIG__AWS_SECRET_ACCESS_KEY  AWS_CONFIG__AWS_DEFAULT_REGION
//	LOOKUP_DATA__DATA_FILE_1
//	LOGGING__LOG_LEVEL  LOGGING__LOG_FORMAT  LOGGING__LOG_DATE_FORMAT
//	LOGGING__LOG_DIR  LOGGING__LOG_ENCODING
//
// The AWS fields also accept their bare names (AWS_PROFILE, …) and the
// legacy AWS__ prefix, so the standard AWS variables work unchanged.
//
// Notes
// -----
//   • USERNAME and PASSWORD ship placeholder defaults so a fresh checkout
//     loads; production overrides them from the secrets directory.
//   • Oxford commas, two spaces after periods.

package settings

import (
	"github.com/yanizio/confstack/internal/config"
)

// Keys used by Decode and the section checks.
const (
	KeyServiceName = "SERVICE_NAME"

	KeyDBName           = "DB.DB_NAME"
	KeyDBSchemaNames    = "DB.SCHEMA_NAMES"
	KeyDBUsername       = "DB.USERNAME"
	KeyDBPassword       = "DB.PASSWORD"
	KeyDBHost           = "DB.HOST"
	KeyDBPort           = "DB.PORT"
	KeyDBPoolSize       = "DB.PERF.POOL_SIZE"
	KeyDBWebConcurrency = "DB.PERF.WEB_CONCURRENCY"

	KeyAWSProfile   = "AWS_CONFIG.AWS_PROFILE"
	KeyAWSAccessKey = "AWS_CONFIG.AWS_ACCESS_KEY_ID"
	KeyAWSSecretKey = "AWS_CONFIG.AWS_SECRET_ACCESS_KEY"
	KeyAWSRegion    = "AWS_CONFIG.AWS_DEFAULT_REGION"

	KeyDataFile1 = "LOOKUP_DATA.DATA_FILE_1"

	KeyLogLevel      = "LOGGING.LOG_LEVEL"
	KeyLogFormat     = "LOGGING.LOG_FORMAT"
	KeyLogDateFormat = "LOGGING.LOG_DATE_FORMAT"
	KeyLogDir        = "LOGGING.LOG_DIR"
	KeyLogEncoding   = "LOGGING.LOG_ENCODING"
)

// DefaultLogFormat names the fields each log line carries.
const DefaultLogFormat = "%(asctime)s - %(name)s - %(levelname)s - %(message)s"

// Schema declares the application configuration.  Each call returns a new,
// independent schema.
func Schema() *config.Schema {
	return config.NewSchema(
		config.String("SERVICE_NAME").
			Default("my_service_name").
			Rules("required").
			Describe("Name of the service, used as the logger name."),

		config.Section("DB",
			config.String("DB_NAME").Default("DBNAME").Rules("required"),
			config.Strings("SCHEMA_NAMES").
				Default([]string{"SCHEMA"}).
				Rules("min=1,dive,required").
				Describe("Schemas used by the service (R/W permissions required)."),
			config.String("USERNAME").Secret().Default("DB_USERNAME"),
			config.String("PASSWORD").Secret().Default("DB_PASS"),
			config.String("HOST").Default("127.0.0.1").Rules("hostname|ip"),
			config.Int("PORT").Default(3306).Rules("min=1,max=65535"),
			config.Section("PERF",
				config.Int("POOL_SIZE").Default(20).Rules("min=1").
					Describe("Total number of connections in the pool."),
				config.Int("WEB_CONCURRENCY").Default(5).Rules("min=1").
					Describe("Number of web workers."),
			),
		),

		config.Section("AWS_CONFIG",
			config.String("AWS_PROFILE").Nullable().
				Alias("AWS__AWS_PROFILE", "AWS_PROFILE").
				Describe("AWS CLI profile name used for authentication."),
			config.String("AWS_ACCESS_KEY_ID").Nullable().Secret().
				Alias("AWS__AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"),
			config.String("AWS_SECRET_ACCESS_KEY").Nullable().Secret().
				Alias("AWS__AWS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"),
			config.String("AWS_DEFAULT_REGION").Default("us-east-1").Rules("required"),
		).Check(checkAWSAuth),

		config.Section("LOOKUP_DATA",
			config.Path("DATA_FILE_1").
				Default("go.mod").
				Validate(config.FileExists).
				Describe("Required data file, relative to the project root."),
		),

		config.Section("LOGGING",
			config.String("LOG_LEVEL").Default("INFO").
				Rules("oneof=DEBUG INFO WARNING ERROR CRITICAL"),
			config.String("LOG_FORMAT").Default(DefaultLogFormat).
				Rules("min=1").
				Validate(validateLogFormat),
			config.String("LOG_DATE_FORMAT").Default("2006-01-02 15:04:05").
				Validate(validateDateLayout),
			config.Path("LOG_DIR").Nullable().
				Describe("When set, logs are also written to <LOG_DIR>/<SERVICE_NAME>.log."),
			config.String("LOG_ENCODING").Default("console").
				Rules("oneof=console json"),
		),
	)
}
