// Package config merges configuration from a secrets directory, the process
// environment, a dotenv file, a YAML file, and schema defaults, in that
// order of precedence, then validates the result against a declared Schema.
//
// Typical use:
//
//	loader := config.NewLoader(schema, config.Identity)
//	cfg, err := loader.Get()
//	port := cfg.Int("DB.PORT")
//
// Flat sources spell nested keys with "__" (DB__PORT).  Fields marked
// Secret are wrapped so that every default rendering prints Mask.
package config
