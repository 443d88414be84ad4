// Package source discovers configuration sources and parses them into
// streams of raw properties.
package source

import (
	"strings"
)

// Source schemes
const (
	SchemeFile  = "file"
	SchemeEnv   = "env"
	SchemeRedis = "redis"
	SchemeEtcd  = "etcd"
)

// SourceID identifies one source as "scheme:location",
// e.g. "file:configs/config.yaml" or "env:APP".
type SourceID string

// FileID source id of a configuration file
func FileID(path string) SourceID {
	return SourceID(SchemeFile + ":" + path)
}

// EnvID source id of the environment variables carrying prefix
func EnvID(prefix string) SourceID {
	return SourceID(SchemeEnv + ":" + prefix)
}

// RedisID source id of a redis hash
func RedisID(key string) SourceID {
	return SourceID(SchemeRedis + ":" + key)
}

// EtcdID source id of an etcd key prefix
func EtcdID(prefix string) SourceID {
	return SourceID(SchemeEtcd + ":" + prefix)
}

// Scheme returns the part before the first colon, empty when there is none
func (id SourceID) Scheme() string {
	scheme, _, ok := strings.Cut(string(id), ":")
	if !ok {
		return ""
	}
	return scheme
}

// Location returns the part after the first colon
func (id SourceID) Location() string {
	_, location, ok := strings.Cut(string(id), ":")
	if !ok {
		return string(id)
	}
	return location
}

// String implements fmt.Stringer
func (id SourceID) String() string {
	return string(id)
}
