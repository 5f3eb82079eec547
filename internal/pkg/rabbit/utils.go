package rabbit

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//Declare decrares queue
func Declare(ch *amqp.Channel, qName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		qName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

//DeclareQueues returns sender init func declaring durable queues
func DeclareQueues(names ...string) InitFunc {
	return func(pr *ChannelProvider) error {
		return pr.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
			for _, n := range names {
				if _, err := Declare(ch, pr.QueueName(n)); err != nil {
					return errors.Wrapf(err, "Can't declare %s", n)
				}
			}
			return nil
		})
	}
}

//NewChannel declares queue and starts consuming it
func NewChannel(ch *amqp.Channel, qName string) (<-chan amqp.Delivery, error) {
	q, err := Declare(ch, qName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't declare "+qName)
	}
	res, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, errors.Wrap(err, "Can't consume "+qName)
	}
	return res, nil
}
