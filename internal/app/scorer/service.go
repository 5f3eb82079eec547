package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/assess"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/messages"
)

//Scorer runs one scoring of a submission
type Scorer interface {
	RunScoring(ctx context.Context, submissionID, referenceText, language string) (*assess.Outcome, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Scorer  Scorer
	WorkCh  <-chan amqp.Delivery
	Timeout time.Duration
}

var errBadMessage = errors.New("bad message")

//StartWorkerService starts the queue listener, the returned channel reports the finish
//
//	fc, err := StartWorkerService(data)
//	handle err
//	<-fc // waits for finish
func StartWorkerService(data *ServiceData) (<-chan bool, error) {
	cmdapp.Log.Infof("Starting listen for messages")
	if data.Scorer == nil {
		return nil, errors.New("No scorer")
	}
	if data.WorkCh == nil {
		return nil, errors.New("No work channel")
	}
	if data.Timeout <= 0 {
		data.Timeout = 2 * time.Minute
	}
	fc := make(chan bool)
	go listenQueue(data, fc)
	return fc, nil
}

func listenQueue(data *ServiceData, fc chan<- bool) {
	for d := range data.WorkCh {
		err := processMsg(&d, data)
		if err != nil {
			cmdapp.Log.Error("Message error ", err)
			d.Nack(false, retry(err) && !d.Redelivered) // try redeliver for the first time
			continue
		}
		d.Ack(false)
	}
	cmdapp.Log.Infof("Stopped listening queue")
	fc <- true
}

func processMsg(d *amqp.Delivery, data *ServiceData) error {
	var message messages.ScoreMessage
	if err := json.Unmarshal(d.Body, &message); err != nil {
		return errors.Wrap(errBadMessage, "Can't unmarshal message "+string(d.Body))
	}
	cmdapp.Log.Infof("Got score task for ID: %s", message.ID)
	ctx, cancel := context.WithTimeout(context.Background(), data.Timeout)
	defer cancel()
	res, err := data.Scorer.RunScoring(ctx, message.ID, message.ReferenceText, message.Language)
	if err != nil {
		return errors.Wrapf(err, "Can't score %s", message.ID)
	}
	cmdapp.Log.Infof("Scored %s: %s", message.ID, res.Status)
	return nil
}

//retry is false for errors a redelivery can't fix
func retry(err error) bool {
	if errors.Is(err, errBadMessage) {
		return false
	}
	code := apperr.HTTPCode(err)
	return code >= http.StatusInternalServerError
}
