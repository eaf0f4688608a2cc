package models

// Article is one entry of a topic catalog file.
type Article struct {
	Headline            string      `json:"headline"`
	Summary             string      `json:"summary"`
	Content             string      `json:"content"`
	AttentionWord       string      `json:"attentionWord,omitempty"`
	AttentionAnswer     string      `json:"attentionAnswer,omitempty"`
	ArticleCode         string      `json:"articleCode,omitempty"`
	LinkedStatementCode string      `json:"linkedStatementCode,omitempty"`
	ArticleType         ArticleType `json:"articleType,omitempty"`
}

// ArticleList is the content of one topic catalog file.
type ArticleList struct {
	Topic    string    `json:"topic"`
	Articles []Article `json:"articles"`
}
