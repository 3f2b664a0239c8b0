package types

// Commit is one line of commit history.
type Commit struct {
	Hash  string `json:"hash"`
	Short string `json:"short_hash"`
	Title string `json:"title"`
}
