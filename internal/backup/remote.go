package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// RemoteMirror is an optional off-box copy of the backup snapshot tree,
// held in an S3-compatible bucket (Cloudflare R2 in practice). Every
// method wraps its own timeout; Push logs each uploaded key. The
// vvtv-backup push subcommand is its only caller.
type RemoteMirror struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	log        zerolog.Logger
}

// NewRemoteMirror configures an S3-compatible client pointed at the given
// account's R2 endpoint.
func NewRemoteMirror(accountID, accessKeyID, secretAccessKey, bucket string, log zerolog.Logger) (*RemoteMirror, error) {
	if accountID == "" || accessKeyID == "" || secretAccessKey == "" || bucket == "" {
		return nil, fmt.Errorf("backup: r2 credentials incomplete")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
			HostnameImmutable: true,
			SigningRegion:     "auto",
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 5
	})
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024
		d.Concurrency = 5
	})

	return &RemoteMirror{
		client: client, uploader: uploader, downloader: downloader, bucket: bucket,
		log: log.With().Str("component", "backup.remote").Logger(),
	}, nil
}

// Push uploads every file in a local snapshot directory under a matching
// key prefix, so a restore can find manifest.json alongside its sealed
// copies in the bucket exactly as it does on disk.
func (m *RemoteMirror) Push(ctx context.Context, snapshotDir, keyPrefix string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	for _, filename := range []string{stateDBFilename, ownerCardFilename, manifestFilename} {
		localPath := snapshotDir + string(os.PathSeparator) + filename
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("backup: failed to open %s for upload: %w", localPath, err)
		}

		key := keyPrefix + "/" + filename
		_, err = m.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("backup: failed to upload %s: %w", key, err)
		}
		m.log.Info().Str("key", key).Msg("uploaded backup file to remote mirror")
	}
	return nil
}

// Pull downloads one key from the mirror into w. Nothing in the restore
// path calls it; restore works only from a local snapshot directory.
func (m *RemoteMirror) Pull(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	n, err := m.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("backup: failed to download %s: %w", key, err)
	}
	return n, nil
}

// List returns every object under prefix — used to enumerate available
// remote snapshots.
func (m *RemoteMirror) List(ctx context.Context, prefix string) ([]types.Object, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var objects []types.Object
	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("backup: failed to list remote snapshots: %w", err)
		}
		objects = append(objects, page.Contents...)
	}
	return objects, nil
}

// TestConnection confirms the mirror's bucket is reachable with the
// configured credentials.
func (m *RemoteMirror) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)}); err != nil {
		return fmt.Errorf("backup: remote mirror connection test failed: %w", err)
	}
	return nil
}
