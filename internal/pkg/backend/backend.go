// Package backend creates the configured object store and speech providers
package backend

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/airenas/speakhw/internal/pkg/azure"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/google"
	"github.com/airenas/speakhw/internal/pkg/minio"
	"github.com/airenas/speakhw/internal/pkg/mongo"
	"github.com/airenas/speakhw/internal/pkg/recognizer"
	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/airenas/speakhw/internal/pkg/tts"
)

//Store is the object store selected by store.provider
type Store struct {
	Objects  storage.ObjectStore
	Provider string
	Bucket   string
	Region   string
	Healthy  func() error
	Close    func()
}

func noClose() {}

//NewStore creates fs, minio or mongo object store
func NewStore(ctx context.Context) (*Store, error) {
	provider := cmdapp.Config.GetString("store.provider")
	cmdapp.Log.Infof("Init %s object store", provider)
	switch provider {
	case "fs":
		fs, err := storage.NewLocalStore(cmdapp.Config.GetString("fs.path"), cmdapp.Config.GetString("fs.publicURL"))
		if err != nil {
			return nil, err
		}
		return &Store{Objects: fs, Provider: provider, Healthy: fs.Healthy, Close: noClose}, nil
	case "minio":
		opt := minio.OptionsFromConfig()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		st, err := minio.NewStore(ctx, opt)
		if err != nil {
			return nil, err
		}
		return &Store{Objects: st, Provider: provider, Bucket: st.Bucket(), Region: opt.Region,
			Healthy: st.Healthy, Close: noClose}, nil
	case "mongo":
		sp, err := mongo.NewSessionProvider()
		if err != nil {
			return nil, err
		}
		st, err := mongo.NewObjectStore(sp)
		if err != nil {
			sp.Close()
			return nil, err
		}
		return &Store{Objects: st, Provider: provider, Healthy: sp.Healthy, Close: sp.Close}, nil
	}
	return nil, errors.Errorf("Unknown store.provider '%s'", provider)
}

//NewSynthesizer creates the tts.provider client
func NewSynthesizer() (tts.Synthesizer, error) {
	switch provider := cmdapp.Config.GetString("tts.provider"); provider {
	case "azure":
		r, err := azure.NewTTSFromConfig()
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, errors.Errorf("Unknown tts.provider '%s'", provider)
	}
}

//NewRecognizer creates the stt.provider client and its close func
func NewRecognizer(ctx context.Context) (recognizer.Recognizer, func(), error) {
	switch provider := cmdapp.Config.GetString("stt.provider"); provider {
	case "azure":
		r, err := azure.NewSTTFromConfig()
		if err != nil {
			return nil, nil, err
		}
		return r, noClose, nil
	case "google":
		r, err := google.NewRecognizerFromConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { cmdapp.LogIf(r.Close()) }, nil
	default:
		return nil, nil, errors.Errorf("Unknown stt.provider '%s'", provider)
	}
}
