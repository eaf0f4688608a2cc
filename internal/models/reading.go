// internal/models/reading.go
package models

// ScrollSample is one scroll position report from the article viewer.
// Position is the normalized vertical position: 1 at the top, 0 at the bottom.
type ScrollSample struct {
	Position  float64 `json:"position" form:"position"`
	Timestamp float64 `json:"timestamp,omitempty" form:"timestamp"`
}

// ReadingBehaviour summarises how one article was read.
type ReadingBehaviour struct {
	ArticleCode   string  `json:"articleCode"`
	ReadingTime   float64 `json:"readingTime"`
	ScrollDepth   float64 `json:"scrollDepth"`
	ScrollEvents  int     `json:"scrollEvents"`
	BackPresses   int     `json:"backButtonCount"`
	PromptShownAt float64 `json:"promptShownAt,omitempty"`
}
