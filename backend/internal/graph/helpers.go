package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Property-map coercion helpers. The driver returns node properties as
// map[string]interface{}; Cypher list properties come back as []interface{}.

func getStringProp(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt64Prop(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func getTimeProp(m map[string]interface{}, key string) time.Time {
	if t, ok := m[key].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func getStringSliceProp(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// nodeFromProps rebuilds a Node from a property map
func nodeFromProps(props map[string]interface{}) *Node {
	return &Node{
		ID:               getStringProp(props, "id"),
		Title:            getStringProp(props, "title"),
		Summary:          getStringProp(props, "summary"),
		ParentID:         getStringProp(props, "parent_id"),
		RootID:           getStringProp(props, "root_id"),
		Tags:             getStringSliceProp(props, "tags"),
		IndexDocumentID:  getStringProp(props, "index_document_id"),
		IndexChunkIDs:    getStringSliceProp(props, "index_chunk_ids"),
		InteractionCount: getInt64Prop(props, "interaction_count"),
		LastRefinedAt:    getTimeProp(props, "last_refined_at"),
		CreatedAt:        getTimeProp(props, "created_at"),
		ChildrenIDs:      getStringSliceProp(props, "children_ids"),
		AncestorPath:     getStringSliceProp(props, "ancestor_path"),
	}
}

// topicFromProps rebuilds a RootTopic from a property map
func topicFromProps(props map[string]interface{}) *RootTopic {
	return &RootTopic{
		ID:                getStringProp(props, "id"),
		Title:             getStringProp(props, "title"),
		Description:       getStringProp(props, "description"),
		IndexCollectionID: getStringProp(props, "index_collection_id"),
		NodeCount:         getInt64Prop(props, "node_count"),
		CreatedAt:         getTimeProp(props, "created_at"),
	}
}

func propsFromRecord(record *neo4j.Record, key string) (map[string]interface{}, bool) {
	raw, ok := record.Get(key)
	if !ok {
		return nil, false
	}
	props, ok := raw.(map[string]interface{})
	return props, ok
}
