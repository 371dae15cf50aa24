// Package config loads the saascannon server configuration.
//
// The configuration lives in saascannon.yaml (or .yml, or
// saascannon.json) at the project root. A .env file next to it is loaded
// into the environment, and SAASCANNON_* variables override file values.
//
// # Configuration File Structure
//
//	name: demo
//	port: 3000
//	publicUrl: https://app.example.com
//	saascannon:
//	  domain: acme.saascannon.app
//	  clientId: spa_123
//	  audience: https://api.example.com
//	session:
//	  idleTimeout: 2m
//	log:
//	  level: info
//	  format: json
//	  file: /var/log/saascannon.log
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := spa.New(cfg.SpaOptions())
package config
