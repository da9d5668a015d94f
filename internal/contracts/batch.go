package contracts

// DecodeFailure is a raw record that could not be shaped into a candidate.
type DecodeFailure struct {
	Index  int
	Ref    string
	Reason string
}

// Batch is the normalized output of one unit of work.
type Batch[T any] struct {
	Fetched  int
	Records  []T
	Failures []DecodeFailure
}
