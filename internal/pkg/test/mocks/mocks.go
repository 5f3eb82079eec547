package mocks

import (
	"context"

	"github.com/airenas/speakhw/internal/pkg/tts"
	"github.com/stretchr/testify/mock"
)

//Synthesizer is a mock of tts.Synthesizer
type Synthesizer struct {
	mock.Mock
}

//Synthesize is a mocked function
func (m *Synthesizer) Synthesize(ctx context.Context, text string, cfg tts.Config) ([]byte, error) {
	args := m.Called(text, cfg)
	return mockBytes(args, 0), args.Error(1)
}

//Recognizer is a mock of recognizer.Recognizer
type Recognizer struct {
	mock.Mock
}

//Recognize is a mocked function
func (m *Recognizer) Recognize(ctx context.Context, audio []byte, language, contentType string) (string, error) {
	args := m.Called(audio, language, contentType)
	return args.String(0), args.Error(1)
}

//Sender is a mock of messages.Sender
type Sender struct {
	mock.Mock
}

//Send is a mocked function
func (m *Sender) Send(msg interface{}, queue, replyQueue string) error {
	args := m.Called(msg, queue, replyQueue)
	return args.Error(0)
}

func mockBytes(args mock.Arguments, i int) []byte {
	v := args.Get(i)
	if v == nil {
		return nil
	}
	return v.([]byte)
}
