package messages

const (
	// Score queue
	Score string = "Score"
)
