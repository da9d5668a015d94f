package validate

// Pass names the validation stage that rejected a record.
type Pass string

const (
	PassSchema Pass = "schema"
	PassSanity Pass = "sanity"
)

// Rejection records why one candidate was dropped.
type Rejection struct {
	Ref    string `json:"ref"`
	Pass   Pass   `json:"pass"`
	Reason string `json:"reason"`
}

// Warning annotates an accepted record that looks implausible.
type Warning struct {
	Ref    string `json:"ref"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// Result is the outcome of validating one batch.
type Result[T any] struct {
	Accepted   []T
	Rejections []Rejection
	Warnings   []Warning
}

// Rejected returns the number of dropped candidates.
func (r Result[T]) Rejected() int {
	return len(r.Rejections)
}
