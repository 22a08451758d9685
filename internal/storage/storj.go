package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Blobs above this size go through the multipart uploader.
const minMultipartSize = 100 << 20

// Storj uploads blobs to an S3-compatible bucket with path-style
// addressing, using the orderId/skuId/date/filename key layout.
type Storj struct {
	endpoint string
	bucket   string
	c        *s3.Client
}

// NewStorj fails before any network call if one of the four credential
// fields is missing.
func NewStorj(cfg *model.StorageConfig) (*Storj, error) {
	var missing []string
	for field, v := range map[string]string{
		"storjAccessKey": cfg.StorjAccessKey,
		"storjSecretKey": cfg.StorjSecretKey,
		"storjEndpoint":  cfg.StorjEndpoint,
		"storjBucket":    cfg.StorjBucket,
	} {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.New(apperr.KindConfigIncomplete, "storj configuration incomplete, missing %s", strings.Join(missing, ", "))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorjAccessKey,
			cfg.StorjSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build storj client config, %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorjEndpoint)
		o.UsePathStyle = true
	})

	return &Storj{
		endpoint: strings.TrimRight(cfg.StorjEndpoint, "/"),
		bucket:   cfg.StorjBucket,
		c:        client,
	}, nil
}

func (s *Storj) Store(ctx context.Context, blob io.Reader, req SaveRequest) (*StoredObject, error) {
	filename := newFilename(req.MimeType)
	key := objectKey(req.OrderID, req.SkuID, today(), filename)

	contentType := req.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        blob,
		ContentType: aws.String(contentType),
	}
	if req.Size > 0 {
		input.ContentLength = aws.Int64(req.Size)
	}

	var err error
	if req.Size > minMultipartSize {
		uploader := manager.NewUploader(s.c, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = s.c.PutObject(ctx, input)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, err, "failed to upload blob to storj")
	}

	return &StoredObject{
		Path:        key,
		URL:         fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key),
		Filename:    filename,
		StorageType: model.StorageStorj,
	}, nil
}
