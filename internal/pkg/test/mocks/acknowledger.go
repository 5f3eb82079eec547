package mocks

import "github.com/stretchr/testify/mock"

//Acknowledger is a mock of amqp.Acknowledger
type Acknowledger struct {
	mock.Mock
}

//Ack is a mocked function
func (m *Acknowledger) Ack(tag uint64, multiple bool) error {
	args := m.Called(multiple)
	return args.Error(0)
}

//Nack is a mocked function
func (m *Acknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	args := m.Called(multiple, requeue)
	return args.Error(0)
}

//Reject is a mocked function
func (m *Acknowledger) Reject(tag uint64, requeue bool) error {
	args := m.Called(requeue)
	return args.Error(0)
}
