// Package config defines configuration structures for the filecreator CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (FILECREATOR_ prefix)
//   - YAML configuration file
//
// Sizes accept human-readable strings such as "10GB" or "512 MB"; intervals
// accept Go duration strings.
//
// # Example
//
//	path: /data/disk.img
//	size: 10GB
//	workers: 0        # auto
//	buffer_size: 32MB
//	fill: random
//	turbo: true
//	rate_limit: 200MB # per second
//	allocation: auto
//	log:
//	  format: json
//	  level: info
//	metrics:
//	  address: ":9090"
//	report:
//	  url: file:///var/lib/filecreator/reports
package config
