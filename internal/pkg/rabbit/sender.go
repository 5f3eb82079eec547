package rabbit

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
)

//Sender performs messages sending using rabbit mq broker
type Sender struct {
	ChannelProvider *ChannelProvider
	initialized     bool
	initFunc        InitFunc
	m               sync.Mutex
}

//InitFunc prepares broker before the first send
type InitFunc func(*ChannelProvider) error

//NewSender initializes rabbit sender, f may be nil
func NewSender(provider *ChannelProvider, f InitFunc) *Sender {
	return &Sender{ChannelProvider: provider, initFunc: f}
}

//Send sends the message to the queue, the queue name is prefixed by the provider
func (sender *Sender) Send(message interface{}, queue, replyQueue string) error {
	err := sender.initialize()
	if err != nil {
		defer sender.ChannelProvider.Close() // lets init sender again
		return errors.Wrap(err, "Can't initialize sender")
	}
	msgBytes, err := getBytes(message)
	if err != nil {
		return errors.Wrap(err, "Can't marshal message")
	}
	qName := sender.ChannelProvider.QueueName(queue)
	cmdapp.Log.Infof("Sending message to %s", qName)
	err = sender.ChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		return ch.Publish(
			"", // exchange
			qName,
			false, // mandatory
			false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         msgBytes,
				ReplyTo:      sender.ChannelProvider.QueueName(replyQueue),
			})
	})
	if err != nil {
		defer sender.ChannelProvider.Close() // lets init sender again
		return errors.Wrap(err, "Can't send message")
	}
	return nil
}

func (sender *Sender) initialize() error {
	sender.m.Lock()
	defer sender.m.Unlock()

	if !sender.initialized && sender.initFunc != nil {
		err := sender.initFunc(sender.ChannelProvider)
		if err != nil {
			return err
		}
		sender.initialized = true
	}
	return nil
}

func getBytes(message interface{}) ([]byte, error) {
	if b, ok := message.([]byte); ok {
		return b, nil
	}
	return json.Marshal(message)
}
