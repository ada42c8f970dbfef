// Package mediasvc hosts uploaded images on an S3-compatible object store.
package mediasvc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
)

var extByContentType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type minioService struct {
	client *minio.Client
	conf   core.MediaConfig
}

var _ core.MediaService = (*minioService)(nil)

func NewMinioService(ctx context.Context, conf core.MediaConfig) (core.MediaService, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "checking bucket %s", conf.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "creating bucket %s", conf.Bucket)
		}
	}
	return &minioService{client: client, conf: conf}, nil
}

// Upload decodes a base64 payload (raw or data URL) and stores it under
// folder/<uuid>.<ext>.
func (svc *minioService) Upload(ctx context.Context, folder, content string) (core.Asset, error) {
	data, err := decodePayload(content)
	if err != nil {
		return core.Asset{}, err
	}

	contentType := http.DetectContentType(data)
	ext, ok := extByContentType[contentType]
	if !ok {
		ext = ".bin"
	}
	objectName := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)

	_, err = svc.client.PutObject(ctx, svc.conf.Bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return core.Asset{}, errors.Wrapf(err, "uploading %s", objectName)
	}
	return core.Asset{PublicID: objectName, URL: svc.urlFor(objectName)}, nil
}

// Destroy removes a hosted asset; an already-absent object is not an error.
func (svc *minioService) Destroy(ctx context.Context, publicID string) error {
	err := svc.client.RemoveObject(ctx, svc.conf.Bucket, publicID, minio.RemoveObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil
		}
		return errors.Wrapf(err, "removing %s", publicID)
	}
	return nil
}

func (svc *minioService) urlFor(objectName string) string {
	scheme := "http"
	if svc.conf.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, svc.conf.Endpoint, svc.conf.Bucket, objectName)
}

func decodePayload(content string) ([]byte, error) {
	// strip an optional "data:<type>;base64," prefix
	if strings.HasPrefix(content, "data:") {
		if i := strings.Index(content, ","); i >= 0 {
			content = content[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, errors.Wrap(err, "decoding base64 payload")
	}
	return data, nil
}
