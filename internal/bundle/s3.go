// internal/bundle/s3.go
package bundle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/zuga-web/internal/cryptoutil"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

// SSMAPI is the subset of the SSM client the loader uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// S3API is the subset of the S3 client the loader uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Options struct {
	Logger log.Logger

	// SSM parameter containing the bundle SHA256 hash
	SSMParam string

	// S3 location for bundles: s3://{bucket}/{prefix}/{hash}.tar.gz
	S3Bucket string
	S3Prefix string

	// AWS config (uses default chain if nil)
	AWSConfig *aws.Config

	// clients override AWSConfig, used by tests
	SSMClient SSMAPI
	S3Client  S3API
}

type S3Loader struct {
	opts   S3Options
	ssm    SSMAPI
	s3     S3API
	logger log.Logger
}

// NewS3Loader creates a loader for bundles published to S3/SSM
func NewS3Loader(ctx context.Context, opts S3Options) (*S3Loader, error) {
	if opts.SSMParam == "" {
		return nil, xerrors.New("SSMParam is required")
	}
	if opts.S3Bucket == "" {
		return nil, xerrors.New("S3Bucket is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	l := &S3Loader{opts: opts, ssm: opts.SSMClient, s3: opts.S3Client, logger: opts.Logger}
	if l.ssm != nil && l.s3 != nil {
		return l, nil
	}

	var awsCfg aws.Config
	if opts.AWSConfig != nil {
		awsCfg = *opts.AWSConfig
	} else {
		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, xerrors.Wrap(err, "load AWS config")
		}
	}
	if l.ssm == nil {
		l.ssm = ssm.NewFromConfig(awsCfg)
	}
	if l.s3 == nil {
		l.s3 = s3.NewFromConfig(awsCfg)
	}
	return l, nil
}

// CurrentHash reads the published bundle hash from SSM
func (l *S3Loader) CurrentHash(ctx context.Context) (string, error) {
	out, err := l.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(l.opts.SSMParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", l.opts.SSMParam)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", l.opts.SSMParam)
	}

	hash := strings.ToLower(strings.TrimSpace(*out.Parameter.Value))
	if !cryptoutil.ValidSHA256Hex(hash) {
		return "", xerrors.Newf("SSM parameter %s does not hold a sha256 hex digest", l.opts.SSMParam)
	}
	return hash, nil
}

func (l *S3Loader) key(hash string) string {
	if p := strings.Trim(l.opts.S3Prefix, "/"); p != "" {
		return fmt.Sprintf("%s/%s.tar.gz", p, hash)
	}
	return hash + ".tar.gz"
}

// Load fetches the currently published bundle
func (l *S3Loader) Load(ctx context.Context) (*Snapshot, error) {
	hash, err := l.CurrentHash(ctx)
	if err != nil {
		return nil, err
	}
	return l.LoadHash(ctx, hash)
}

// LoadHash fetches, verifies and extracts the bundle with the given hash
func (l *S3Loader) LoadHash(ctx context.Context, hash string) (*Snapshot, error) {
	key := l.key(hash)
	l.logger.Info(ctx, "downloading content bundle",
		"bucket", l.opts.S3Bucket,
		"key", key,
		"expected_hash", hash,
	)

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.opts.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, xerrors.Wrapf(err, "get S3 object s3://%s/%s", l.opts.S3Bucket, key)
	}
	defer out.Body.Close()

	data, actual, err := readWithHash(out.Body, maxBundleSize)
	if err != nil {
		return nil, xerrors.Wrap(err, "download bundle")
	}
	if !cryptoutil.HashEqual(actual, hash) {
		return nil, xerrors.Newf("checksum mismatch: expected %s, got %s", hash, actual)
	}

	mfs, err := extractTarGz(data)
	if err != nil {
		return nil, xerrors.Wrap(err, "extract bundle")
	}

	snap := &Snapshot{
		FS: mfs,
		Meta: Meta{
			Source:   SourceS3,
			Location: fmt.Sprintf("s3://%s/%s", l.opts.S3Bucket, key),
			SHA256:   hash,
			Files:    countFiles(mfs),
			LoadedAt: time.Now().UTC(),
		},
	}
	l.logger.Info(ctx, "loaded content bundle",
		"hash", hash,
		"bytes", len(data),
		"files", snap.Meta.Files,
	)
	return snap, nil
}
