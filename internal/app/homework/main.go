package homework

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"

	"github.com/airenas/speakhw/internal/pkg/assess"
	"github.com/airenas/speakhw/internal/pkg/assignment"
	"github.com/airenas/speakhw/internal/pkg/backend"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/config"
	"github.com/airenas/speakhw/internal/pkg/docstore"
	"github.com/airenas/speakhw/internal/pkg/messages"
	"github.com/airenas/speakhw/internal/pkg/metrics"
	"github.com/airenas/speakhw/internal/pkg/rabbit"
	"github.com/airenas/speakhw/internal/pkg/submission"
	"github.com/airenas/speakhw/internal/pkg/text"
	"github.com/airenas/speakhw/internal/pkg/tts"
)

var rootCmd = &cobra.Command{
	Use:   "homeworkService",
	Short: "Speaking Homework Service",
	Long:  `HTTP server for teachers to publish spoken assignments and for students to submit and score their recordings`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8000)
	cmdapp.Config.SetDefault("api.version", "v1")
	cmdapp.Config.SetDefault("upload.maxMB", 2)
	cmdapp.Config.SetDefault("resign.expires", "3600s")
	cmdapp.Config.SetDefault("resign.allowedPrefixes", "tts/,submissions/,db/")
	cmdapp.Config.SetDefault("store.provider", "fs")
	cmdapp.Config.SetDefault("fs.path", "/data/homework/")
	cmdapp.Config.SetDefault("lexicon.key", "lexicon/english_top70k.txt")
	cmdapp.Config.SetDefault("stt.defaultLanguage", "en-US")
	cmdapp.Config.SetDefault("stt.provider", "azure")
	cmdapp.Config.SetDefault("tts.provider", "azure")
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting homeworkService")
	data := &ServiceData{}
	err := initMetrics(data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")
	data.health = healthcheck.NewHandler()

	store, err := backend.NewStore(context.Background())
	cmdapp.CheckOrPanic(err, "Can't init object store")
	defer store.Close()
	data.health.AddLivenessCheck(store.Provider, healthcheck.Async(store.Healthy, 10*time.Second))
	data.Objects = store.Objects
	data.Store = StoreInfo{Provider: store.Provider, Bucket: store.Bucket, Region: store.Region}
	docs := docstore.New(store.Objects, cmdapp.Config.GetString("store.prefix"))

	synth, err := backend.NewSynthesizer()
	cmdapp.CheckOrPanic(err, "Can't init synthesizer")
	cache, err := tts.NewCache(store.Objects, synth)
	cmdapp.CheckOrPanic(err, "Can't init speech cache")

	var voices assignment.VoiceSelector
	if vf := cmdapp.Config.GetString("voices.path"); vf != "" {
		vm, err := config.NewVoiceMap(vf)
		cmdapp.CheckOrPanic(err, "Can't init voice map")
		voices = vm
	}
	data.Assignments, err = assignment.NewService(docs, cache, voices)
	cmdapp.CheckOrPanic(err, "Can't init assignment service")

	data.Submissions, err = submission.NewService(docs, cmdapp.Config.GetInt("upload.maxMB"))
	cmdapp.CheckOrPanic(err, "Can't init submission service")

	rec, recClose, err := backend.NewRecognizer(context.Background())
	cmdapp.CheckOrPanic(err, "Can't init recognizer")
	defer recClose()
	data.Assess, err = assess.NewService(docs, rec, cmdapp.Config.GetString("stt.defaultLanguage"))
	cmdapp.CheckOrPanic(err, "Can't init scoring service")

	lexKey := cmdapp.Config.GetString("lexicon.key")
	data.Checker = text.NewChecker(text.NewLexicon(func(ctx context.Context) (string, error) {
		return docs.ReadText(ctx, lexKey)
	}))

	if cmdapp.Config.GetBool("score.async") {
		msgChannelProvider, err := rabbit.NewChannelProvider()
		cmdapp.CheckOrPanic(err, "Can't init rabbit channel provider")
		defer msgChannelProvider.Close()
		data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))
		data.MessageSender = rabbit.NewSender(msgChannelProvider, rabbit.DeclareQueues(messages.Score))
	}

	data.Token = cmdapp.Config.GetString("api.token")
	if data.Token == "" {
		cmdapp.Log.Warn("No api.token set, upload and resign endpoints are open")
	}
	data.AllowedPrefixes = cmdapp.ListOf("resign.allowedPrefixes")
	data.ResignExpires = cmdapp.DurationOr("resign.expires", time.Hour)
	data.Version = cmdapp.Config.GetString("api.version")
	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initMetrics(data *ServiceData) error {
	data.metrics.responseDur = newResponseDur()
	return metrics.Register(data.metrics.responseDur)
}
