// Package storage archives consent proofs in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dealer_crm_backend/internal/intake"
	"dealer_crm_backend/platform/config"
)

const proofContentType = "application/json"

// ProofArchive implements intake.ProofStore on MinIO.
type ProofArchive struct {
	client *minio.Client
	bucket string
	newKey func(intake.ConsentProof) string
}

// NewProofArchive creates a MinIO client for the consent proof bucket.
func NewProofArchive(cfg config.MinIOConfig) (*ProofArchive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &ProofArchive{
		client: client,
		bucket: cfg.GetMinioBucketConsentProofs(),
		newKey: proofKey,
	}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (a *ProofArchive) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// Archive stores the proof as a JSON object and returns its s3:// reference.
func (a *ProofArchive) Archive(ctx context.Context, proof intake.ConsentProof) (string, error) {
	body, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("encode consent proof: %w", err)
	}

	key := a.newKey(proof)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: proofContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload consent proof %s: %w", key, err)
	}
	return Reference(a.bucket, key), nil
}

// Reference formats an object location.
func Reference(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// ParseReference splits an s3:// reference into bucket and key.
func ParseReference(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// proofKey groups proofs per lead: consent/<lead>/<yyyymmdd>_<channel>_<id>.json
func proofKey(p intake.ConsentProof) string {
	name := fmt.Sprintf("%s_%s_%s.json", p.CreatedAt.UTC().Format("20060102"), p.Channel, uuid.New().String()[:8])
	return path.Join("consent", p.LeadID, name)
}

var _ intake.ProofStore = (*ProofArchive)(nil)
