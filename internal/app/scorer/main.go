package scorer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/airenas/speakhw/internal/pkg/assess"
	"github.com/airenas/speakhw/internal/pkg/backend"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/messages"
	"github.com/airenas/speakhw/internal/pkg/rabbit"
)

var appName = "Speaking Homework Score Service"

var rootCmd = &cobra.Command{
	Use:   "scoreService",
	Short: appName,
	Long:  `Worker service listens for score events from the queue and scores students' recordings`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	cmdapp.Config.SetDefault("store.provider", "fs")
	cmdapp.Config.SetDefault("fs.path", "/data/homework/")
	cmdapp.Config.SetDefault("stt.defaultLanguage", "en-US")
	cmdapp.Config.SetDefault("stt.provider", "azure")
	cmdapp.Config.SetDefault("score.timeout", "120s")
	cmdapp.Config.SetDefault("messageServer.connectTimeout", "5m")
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := ServiceData{}

	store, err := backend.NewStore(context.Background())
	cmdapp.CheckOrPanic(err, "Can't init object store")
	defer store.Close()
	docs := docstore.New(store.Objects, cmdapp.Config.GetString("store.prefix"))

	rec, recClose, err := backend.NewRecognizer(context.Background())
	cmdapp.CheckOrPanic(err, "Can't init recognizer")
	defer recClose()
	data.Scorer, err = assess.NewService(docs, rec, cmdapp.Config.GetString("stt.defaultLanguage"))
	cmdapp.CheckOrPanic(err, "Can't init scoring service")
	data.Timeout = cmdapp.DurationOr("score.timeout", 2*time.Minute)

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit channel provider")
	defer msgChannelProvider.Close()

	ch, err := connect(msgChannelProvider, newBackOff(cmdapp.DurationOr("messageServer.connectTimeout", 5*time.Minute)))
	cmdapp.CheckOrPanic(err, "Can't open channel")
	err = ch.Qos(1, 0, false)
	cmdapp.CheckOrPanic(err, "Can't set Qos")

	data.WorkCh, err = rabbit.NewChannel(ch, msgChannelProvider.QueueName(messages.Score))
	cmdapp.CheckOrPanic(err, "Can't listen "+messages.Score+" channel")

	fc, err := StartWorkerService(&data)
	cmdapp.CheckOrPanic(err, "Can't start worker")
	select {
	case <-fc:
	case <-cmdapp.NewSignalChannel():
		cmdapp.Log.Infof("Got exit signal")
	}
	cmdapp.Log.Infof("Exiting service")
}

type channelProvider interface {
	Channel() (*amqp.Channel, error)
}

//connect waits for the broker to come up
func connect(prv channelProvider, b backoff.BackOff) (*amqp.Channel, error) {
	var res *amqp.Channel
	op := func() error {
		var err error
		res, err = prv.Channel()
		if err != nil {
			cmdapp.Log.Warnf("Broker not ready: %v", err)
		}
		return err
	}
	if err := backoff.Retry(op, b); err != nil {
		return nil, errors.Wrap(err, "Can't connect to broker")
	}
	return res, nil
}

func newBackOff(maxElapsed time.Duration) backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	res.MaxInterval = 30 * time.Second
	res.MaxElapsedTime = maxElapsed
	return res
}
