package storage

import (
	"context"
	"time"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/pkg/errors"
)

//ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.WithMessage(apperr.ErrNotFound, "object")

//ObjectStore is an opaque key/value byte storage.
//Put overwrites, there is no conditional put and no versioning.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

//URLSigner provides temporary download links for stored objects
type URLSigner interface {
	SignURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

//ErrSignNotSupported is returned by signers that are not configured for links
var ErrSignNotSupported = errors.WithMessage(apperr.ErrNotImplemented, "url signing")
