// Package middleware wraps the resolver's HTTP handlers with request
// logging, Prometheus instrumentation and gzip compression of JSON bodies.
//
// Access lines use the W3C Extended Log Format:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Content-Encoding) cs(User-Agent) cs(Referer)
//
// Encoded image bodies are never recompressed.
package middleware
