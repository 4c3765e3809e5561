package docstore

import (
	"strconv"
	"strings"
)

// Tree-shape helpers shared by every pass. Package documents are schemaless
// JSON, so all structure access goes through these instead of ad-hoc type
// assertions scattered across the checks.

// AsMap asserts a JSON object.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// AsList asserts a JSON array.
func AsList(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

// AsString asserts a JSON string.
func AsString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsNumber asserts a JSON number.
func AsNumber(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// GetMap looks up key and asserts an object.
func GetMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return AsMap(v)
}

// GetList looks up key and asserts an array.
func GetList(m map[string]interface{}, key string) ([]interface{}, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return AsList(v)
}

// GetString looks up key and asserts a string.
func GetString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return AsString(v)
}

// AsInt accepts what authored documents use for integers: a whole JSON
// number or a numeric string.
func AsInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Tutor returns the tutor object of a definition document.
func Tutor(doc *Document) (map[string]interface{}, bool) {
	return GetMap(doc.Tree, "tutor")
}

// Setspec returns tutor.setspec of a definition document.
func Setspec(doc *Document) (map[string]interface{}, bool) {
	tutor, ok := Tutor(doc)
	if !ok {
		return nil, false
	}
	return GetMap(tutor, "setspec")
}

// StimulusFile returns the stimulus file name a definition document declares.
func StimulusFile(doc *Document) (string, bool) {
	setspec, ok := Setspec(doc)
	if !ok {
		return "", false
	}
	return GetString(setspec, "stimulusfile")
}

// Units returns the unit list of a definition document: tutor.unit followed
// by tutor.unitTemplate, renumbered contiguously. Entries that are not
// objects come back as nil placeholders so unit indices in diagnostics stay
// aligned with the authored order.
func Units(doc *Document) []map[string]interface{} {
	tutor, ok := Tutor(doc)
	if !ok {
		return nil
	}
	var units []map[string]interface{}
	for _, key := range []string{"unit", "unitTemplate"} {
		list, ok := GetList(tutor, key)
		if !ok {
			continue
		}
		for _, v := range list {
			m, _ := AsMap(v)
			units = append(units, m)
		}
	}
	return units
}

// Clusters returns the cluster list of a stimulus document.
func Clusters(doc *Document) ([]interface{}, bool) {
	setspec, ok := GetMap(doc.Tree, "setspec")
	if !ok {
		return nil, false
	}
	return GetList(setspec, "clusters")
}

// ClusterCount returns how many clusters a stimulus document declares.
func ClusterCount(doc *Document) int {
	clusters, _ := Clusters(doc)
	return len(clusters)
}

// ClusterAt returns cluster idx of a stimulus document, or nil when idx is
// out of range or the cluster is not an object.
func ClusterAt(doc *Document, idx int) map[string]interface{} {
	clusters, ok := Clusters(doc)
	if !ok || idx < 0 || idx >= len(clusters) {
		return nil
	}
	m, _ := AsMap(clusters[idx])
	return m
}

// Stims returns the stim list of a cluster.
func Stims(cluster map[string]interface{}) []interface{} {
	if cluster == nil {
		return nil
	}
	stims, _ := GetList(cluster, "stims")
	return stims
}

// FirstStim returns the first stim of a cluster, the single-question
// representative the timeline and option checks inspect.
func FirstStim(cluster map[string]interface{}) map[string]interface{} {
	stims := Stims(cluster)
	if len(stims) == 0 {
		return nil
	}
	m, _ := AsMap(stims[0])
	return m
}
