package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	sc "github.com/okutsen/snipkeep/internal/server/config"
	"github.com/okutsen/snipkeep/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/okutsen/snipkeep/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ArchiveService writes a point-in-time copy of a user's collection to
// object storage and hands back a short-lived download link.
type ArchiveService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

// NewArchiveService constructs an ArchiveService.
func NewArchiveService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *ArchiveService {
	return &ArchiveService{
		db:          db,
		repomanager: m,
		config:      config,
	}
}

func archiveStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("archives/%s/%d/%d/%d/%v.json", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ArchiveService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return client, nil
}

// Archive serializes the user's ordered collection to JSON, uploads it,
// and returns a presigned download URL valid for 15 minutes. An empty
// collection yields common.ErrEmptyCollection.
func (s *ArchiveService) Archive(ctx context.Context, userID string) (string, error) {

	items, err := s.repomanager.Snippets(s.db).SelectOrdered(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("error selecting snippets: %v", err)
	}
	if len(items) == 0 {
		return "", common.ErrEmptyCollection
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding archive: %v", err)
	}

	client, err := s.getS3Client()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := archiveStorageKey(userID)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading archive: %v", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("error presigning archive url: %v", err)
	}

	return req.URL, nil
}
