package recognizer

import "context"

//Recognizer converts student audio into text
//
//Empty text with nil error means the provider heard nothing
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, language, contentType string) (string, error)
}
