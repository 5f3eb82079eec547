package minio

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/url"
	"time"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

//Options for the S3 compatible store
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

//OptionsFromConfig reads minio.* settings
func OptionsFromConfig() Options {
	c := cmdapp.Config
	return Options{Endpoint: c.GetString("minio.endpoint"), AccessKey: c.GetString("minio.accessKey"),
		SecretKey: c.GetString("minio.secretKey"), Bucket: c.GetString("minio.bucket"),
		Region: c.GetString("minio.region"), UseSSL: c.GetBool("minio.useSSL")}
}

//Store keeps objects in an S3 compatible bucket
type Store struct {
	client *minio.Client
	bucket string
}

//NewStore connects to the server and creates the bucket if it is missing
func NewStore(ctx context.Context, opt Options) (*Store, error) {
	if opt.Endpoint == "" {
		return nil, errors.New("No minio.endpoint provided")
	}
	if opt.Bucket == "" {
		return nil, errors.New("No minio.bucket provided")
	}
	cmdapp.Log.Infof("Init minio storage at %s, bucket %s", opt.Endpoint, opt.Bucket)
	client, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, ""),
		Secure: opt.UseSSL,
		Region: opt.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't create minio client")
	}
	exists, err := client.BucketExists(ctx, opt.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "Can't check bucket")
	}
	if !exists {
		cmdapp.Log.Infof("Creating bucket %s", opt.Bucket)
		err = client.MakeBucket(ctx, opt.Bucket, minio.MakeBucketOptions{Region: opt.Region})
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create bucket %s", opt.Bucket)
		}
	}
	return &Store{client: client, bucket: opt.Bucket}, nil
}

//Exists checks object existence
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "Can't stat %s", key)
	}
	return true, nil
}

//Get reads the whole object
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapErr(err, key)
	}
	defer obj.Close()
	res, err := ioutil.ReadAll(obj)
	if err != nil {
		return nil, s.wrapErr(err, key)
	}
	return res, nil
}

//Put overwrites the object
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, "Can't put %s", key)
	}
	return nil
}

//SignURL returns presigned GET url
func (s *Store) SignURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, url.Values{})
	if err != nil {
		return "", errors.Wrapf(err, "Can't sign %s", key)
	}
	return u.String(), nil
}

//Bucket returns bucket name
func (s *Store) Bucket() string {
	return s.bucket
}

//Healthy checks the bucket is reachable
func (s *Store) Healthy() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "Can't check bucket")
	}
	if !ok {
		return errors.Errorf("No bucket %s", s.bucket)
	}
	return nil
}

func (s *Store) wrapErr(err error, key string) error {
	if isNotFound(err) {
		return errors.Wrap(storage.ErrNotFound, key)
	}
	return errors.Wrapf(err, "Can't get %s", key)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
