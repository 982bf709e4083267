// Package objectstore resolves claim-check references: simulation matrices
// too large for a Kafka message are stored as JSON objects in an
// S3-compatible bucket and referenced by a matrix_ref in the payload.
package objectstore

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/thermal-risk-etl/internal/config"
	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
)

// ErrEmptyObject is returned for objects that decode to no matrices.
var ErrEmptyObject = errors.New("object holds no matrices")

// Store reads and writes matrix objects. It implements
// pipeline.MatrixFetcher.
type Store struct {
	client  *minio.Client
	bucket  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Store for the configured endpoint. The default bucket is
// used for references that do not name one.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	client, err := minio.New(cfg.ObjectStoreEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ObjectStoreAccessKey, cfg.ObjectStoreSecretKey, ""),
		Secure: cfg.ObjectStoreUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &Store{
		client:  client,
		bucket:  cfg.ObjectStoreBucket,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// FetchMatrices downloads and decodes the object ref points at. Objects may
// be plain or gzip-compressed JSON.
func (s *Store) FetchMatrices(ctx context.Context, ref domain.MatrixRef) (domain.Matrices, error) {
	bucket := s.bucketFor(ref)
	m, err := s.fetch(ctx, bucket, ref.Key)
	if err != nil {
		s.metrics.MatrixFetches.WithLabelValues("error").Inc()
		return domain.Matrices{}, fmt.Errorf("fetch s3://%s/%s: %w", bucket, ref.Key, err)
	}
	s.metrics.MatrixFetches.WithLabelValues("success").Inc()
	s.logger.Debug("matrices fetched", "bucket", bucket, "key", ref.Key, "zones", len(m.DryBulb))
	return m, nil
}

func (s *Store) fetch(ctx context.Context, bucket, key string) (domain.Matrices, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return domain.Matrices{}, fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Close()
	return DecodeMatrices(obj)
}

// PutMatrices uploads m as gzip-compressed JSON under key in the default
// bucket and returns a reference to it.
func (s *Store) PutMatrices(ctx context.Context, key string, m domain.Matrices) (domain.MatrixRef, error) {
	var buf bytes.Buffer
	if err := EncodeMatrices(&buf, m); err != nil {
		return domain.MatrixRef{}, err
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType:     "application/json",
		ContentEncoding: "gzip",
	})
	if err != nil {
		return domain.MatrixRef{}, fmt.Errorf("s3 put object %s/%s: %w", s.bucket, key, err)
	}
	return domain.MatrixRef{Bucket: s.bucket, Key: key}, nil
}

func (s *Store) bucketFor(ref domain.MatrixRef) string {
	if b := strings.TrimSpace(ref.Bucket); b != "" {
		return b
	}
	return s.bucket
}

// DecodeMatrices reads a matrix object, transparently decompressing gzip.
func DecodeMatrices(r io.Reader) (domain.Matrices, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return domain.Matrices{}, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var m domain.Matrices
	if err := json.NewDecoder(src).Decode(&m); err != nil {
		return domain.Matrices{}, fmt.Errorf("decode matrices: %w", err)
	}
	if len(m.DryBulb) == 0 && len(m.RelativeHumidity) == 0 && len(m.MeanRadiant) == 0 {
		return domain.Matrices{}, ErrEmptyObject
	}
	return m, nil
}

// EncodeMatrices writes m as gzip-compressed JSON.
func EncodeMatrices(w io.Writer, m domain.Matrices) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(m); err != nil {
		return fmt.Errorf("encode matrices: %w", err)
	}
	return zw.Close()
}
