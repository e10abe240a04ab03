package domain

// Category is read-only reference data fetched from the backend.
type Category struct {
	Name          string `json:"name"`
	Key           string `json:"key"`
	Emoji         string `json:"emoji"`
	Description   string `json:"description"`
	ImagePath     string `json:"image_path"`
	Color         string `json:"color"`
	QuestionCount int    `json:"question_count"`
}
