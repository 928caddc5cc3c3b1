// Package topicstore loads the topic/variable taxonomy into an immutable
// domain.TopicStore. Three sources are supported: the bundled node-cache
// JSON shipped with base instances, a live breadth-first build from a
// custom instance's root topics, and a JSON snapshot saved from an earlier
// live build.
package topicstore
