// Package config loads runtime configuration for the chat CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the chat server
//	-m uint     largest accepted frame body, bytes
//	-i int      dial timeout (seconds)
//
// # JSON schema
//
// Durations are either strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_addr": "127.0.0.1:8000",
//	  "max_frame_size": 4194304,
//	  "dial_timeout": "5s"
//	}
package config
