package models

type Topic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type Course struct {
	ID     string  `json:"id" db:"id"`
	Title  string  `json:"title" db:"title"`
	Topics []Topic `json:"topics" db:"topics"`
}

// FindTopic returns the index of the topic with the given id, or -1.
func (c *Course) FindTopic(id string) int {
	for i := range c.Topics {
		if c.Topics[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone copies the topic slice so callers can edit it without touching c.
func (c Course) Clone() Course {
	topics := make([]Topic, len(c.Topics))
	copy(topics, c.Topics)
	c.Topics = topics
	return c
}
