package messages

//ScoreMessage asks to score a submission asynchronously
type ScoreMessage struct {
	ID            string `json:"id"`
	ReferenceText string `json:"referenceText"`
	Language      string `json:"language,omitempty"`
}

//NewScoreMessage creates the message
func NewScoreMessage(id, referenceText, language string) *ScoreMessage {
	return &ScoreMessage{ID: id, ReferenceText: referenceText, Language: language}
}

//Sender publishes a message to the queue, replyQueue is optional
type Sender interface {
	Send(message interface{}, queue, replyQueue string) error
}
