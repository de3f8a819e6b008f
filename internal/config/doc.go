// Package config loads rdfgraph configuration from CUE.
//
// A configuration file is unified with the embedded #Config schema, so
// unknown fields, bad cardinalities and malformed namespaces are reported
// with their file position before anything is opened.
//
//	database:  "people.db"
//	namespace: "urn:people:"
//	cardinality: {
//		default: "single"
//		keys: nickname: "set"
//	}
//	listeners: log: true
package config
