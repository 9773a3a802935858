package graph

import (
	"slices"
	"strings"
)

const (
	paramResult  = "result"
	paramRespond = "respond"
	paramType    = "type"
	paramEvent   = "event"
	paramDefine  = "define"

	lazyPrefix = "_"
)

var reserved = []string{paramResult, paramRespond, paramType, paramEvent, paramDefine}

// IsReserved reports whether name is one of the reserved parameter names.
func IsReserved(name string) bool {
	return slices.Contains(reserved, name)
}

// FanIn returns the names a node reads: reserved words dropped and the
// lazy marker stripped, in declaration order.
func FanIn(params []string) []string {
	out := []string{}
	for _, p := range params {
		if IsReserved(p) {
			continue
		}
		out = append(out, strings.TrimPrefix(p, lazyPrefix))
	}
	return out
}

// Dependencies returns the eager subset of FanIn: names whose changes
// propagate to the node.
func Dependencies(params []string) []string {
	out := []string{}
	for _, p := range params {
		if IsReserved(p) || strings.HasPrefix(p, lazyPrefix) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsLazy reports whether a parameter carries the lazy marker.
func IsLazy(param string) bool {
	return strings.HasPrefix(param, lazyPrefix)
}
