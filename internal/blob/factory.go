package blob

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/avisos/internal/config"
)

// Open selects a Store implementation from the blob configuration.
//
//	driver: fs|s3|memory (default fs)
//	fs_root: directory root when driver=fs
//	s3_bucket, s3_region, s3_endpoint, s3_path_style: driver=s3; credentials
//	come from the default AWS chain (AWS_ACCESS_KEY_ID, profiles, roles)
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.FSRoot, cfg.BaseURL)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case DriverMemory:
		return NewMemory(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
