// Package config handles configuration loading for giveaway-watcher.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every field has a default, so running without a file is valid.
//
// # Configuration File
//
// Location (first match wins):
//
//  1. The --config flag
//  2. Path from GIVEAWAY_CONFIG environment variable
//  3. ./giveaway.yaml (current directory)
//
// Files ending in .toml are decoded as TOML; anything else is YAML. A missing
// file yields the defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	credentials:
//	  env: "${TOKENS_VAR_NAME}"
//
// Syntax: ${VAR_NAME}. PORT, when set, overrides health.port.
//
// # Configuration Sections
//
//	gateway:
//	  url: "wss://gateway.discord.gg/?v=9&encoding=json"
//	  api_base: "https://discord.com/api/v9"
//	  intents: 33280
//	  os: "windows"
//	  browser: "chrome"
//	  device: "pc"
//
//	sessions:
//	  start_delay: "3s"
//	  stagger: "2s"
//	  min_token_length: 11
//	  dispatch_min_delay: "2s"
//	  dispatch_max_delay: "10s"
//	  heartbeat_ack_timeout: "0s"   # 0 disables zombie detection
//	  stop_on_auth_failure: false
//
//	credentials:
//	  env: "TOKENS"       # comma or newline separated
//	  file: "token.txt"   # one token per line
//
//	health:
//	  addr: ""
//	  port: 3000
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Durations use time.ParseDuration syntax.
package config
