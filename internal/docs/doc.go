// Package docs discovers documentation sources and derives their ids,
// permalinks, sidebars and history metadata.
package docs
