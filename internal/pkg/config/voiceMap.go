package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
)

// VoiceMap maps language to the default TTS voice, the file is reloaded on change
type VoiceMap struct {
	v *viper.Viper
}

//NewVoiceMap creates VoiceMap from yaml file, e.g.:
//
//	default: en-GB-LibbyNeural
//	en-US: en-US-JennyNeural
func NewVoiceMap(file string) (*VoiceMap, error) {
	cmdapp.Log.Infof("Init voice map from: %s", file)
	if file == "" {
		return nil, errors.New("No voice map file provided")
	}
	f := VoiceMap{}
	f.v = viper.New()
	f.v.SetConfigFile(file)
	f.v.SetConfigType("yml")
	err := f.v.ReadInConfig()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read voice map file: "+file)
	}

	f.v.WatchConfig()
	f.v.OnConfigChange(func(e fsnotify.Event) {
		cmdapp.Log.Infof("Voice map reloaded from: %s", file)
	})
	return &f, nil
}

// Voice returns voice for language, the default voice if language is not mapped
func (vm *VoiceMap) Voice(language string) string {
	language = strings.TrimSpace(language)
	if language != "" {
		if res := vm.v.GetString(language); res != "" {
			return res
		}
	}
	return vm.v.GetString("default")
}
