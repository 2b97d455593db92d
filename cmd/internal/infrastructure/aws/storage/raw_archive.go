package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	rawPrefix       = "opencnpj/raw"
	jsonContentType = "application/json"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RawArchive keeps every provider payload that was persisted, one object
// per save, so past snapshots of a company can be inspected later.
type RawArchive struct {
	bucket string
	client putObjectAPI
	now    func() time.Time
}

func NewRawArchive(ctx context.Context, region, bucket string) (*RawArchive, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &RawArchive{
		bucket: bucket,
		client: s3.NewFromConfig(cfg),
		now:    time.Now,
	}, nil
}

// SnapshotKey is the object key of a payload saved at the given time.
func SnapshotKey(cnpj string, at time.Time) string {
	return path.Join(rawPrefix, cnpj, fmt.Sprintf("%d.json", at.UTC().UnixMilli()))
}

// ArchiveRaw uploads a JSON payload for cnpj and returns its object key.
func (a *RawArchive) ArchiveRaw(ctx context.Context, cnpj string, payload []byte) (string, error) {
	if cnpj == "" {
		return "", errors.New("cnpj is empty")
	}

	key := SnapshotKey(cnpj, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(jsonContentType),
		Metadata:    map[string]string{"cnpj": cnpj},
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, a.bucket, err)
	}
	return key, nil
}
