package redisconn

import (
	"strconv"
	"strings"
	"time"
)

// ServerInfo is the ready check's parsed INFO reply, kept around so
// callers can inspect what the connection last observed about the
// server it is talking to.
type ServerInfo struct {
	Fields  map[string]string
	Version string
	DBs     map[string]map[string]string
}

// parseServerInfo reads the line-oriented "key:value" INFO reply body.
// Section headers ("# Replication") and blank lines are skipped; keyspace
// lines ("db0:keys=1,expires=0,avg_ttl=0") are split into a sub-map
// instead of being kept as one opaque string.
func parseServerInfo(text string) *ServerInfo {
	info := &ServerInfo{Fields: map[string]string{}, DBs: map[string]map[string]string{}}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.HasPrefix(k, "db") {
			info.DBs[k] = parseKeyspaceLine(v)
			continue
		}
		info.Fields[k] = v
		if k == "redis_version" {
			info.Version = v
		}
	}
	return info
}

func parseKeyspaceLine(v string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(part, "=")
		if ok {
			out[k] = val
		}
	}
	return out
}

// Loading reports whether the last INFO snapshot had loading:1 set, the
// condition the ready check treats as "not ready yet, recheck later"
// rather than an error.
func (si *ServerInfo) Loading() bool {
	return si != nil && si.Fields["loading"] == "1"
}

// LoadingRecheck computes how long the ready check should wait before
// re-probing a loading server: the server's own loading_eta_seconds
// estimate, capped at defaultLoadingRecheck so a large ETA doesn't
// stall readiness detection past what the caller is willing to wait
// for one recheck cycle. Absent or unparseable ETA falls back to the
// cap.
func (si *ServerInfo) LoadingRecheck() time.Duration {
	if si == nil {
		return defaultLoadingRecheck
	}
	eta, err := strconv.ParseFloat(si.Fields["loading_eta_seconds"], 64)
	if err != nil || eta < 0 {
		return defaultLoadingRecheck
	}
	d := time.Duration(eta * float64(time.Second))
	if d > defaultLoadingRecheck {
		d = defaultLoadingRecheck
	}
	return d
}

// MasterLinkDown reports whether a replica's link to its master is
// marked down, another ready-check recheck condition. Any reported
// value other than "up" counts as down, not just the literal "down".
func (si *ServerInfo) MasterLinkDown() bool {
	if si == nil {
		return false
	}
	v, ok := si.Fields["master_link_status"]
	return ok && v != "up"
}
