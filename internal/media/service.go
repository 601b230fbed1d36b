package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxFileSize mirrors the provisioned bucket limit.
const MaxFileSize = 10 << 20

var (
	ErrTooLarge     = errors.New("file exceeds size limit")
	ErrBadExtension = errors.New("unsupported file extension")
	ErrNotFound     = errors.New("file not found")
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpeg": {},
	".jpg":  {},
	".webp": {},
	".gif":  {},
}

type Service struct {
	bucket *gridfs.Bucket
}

func NewService(db *mongo.Database) (*Service, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, err
	}
	return &Service{bucket: bucket}, nil
}

// AllowedExtension reports whether the filename carries one of the bucket's
// raster image extensions.
func AllowedExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Store streams the file into the bucket and returns its id. The reader is
// cut off one byte past the limit so an oversized body fails instead of
// filling the bucket.
func (s *Service) Store(ctx context.Context, ownerID, filename string, size int64, r io.Reader) (string, error) {
	if !AllowedExtension(filename) {
		return "", ErrBadExtension
	}
	if size > MaxFileSize {
		return "", ErrTooLarge
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return "", err
		}
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"owner_id": ownerID})
	limited := io.LimitReader(r, MaxFileSize+1)
	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return "", err
	}

	written, err := io.Copy(stream, limited)
	if err != nil {
		_ = stream.Abort()
		return "", err
	}
	if written > MaxFileSize {
		_ = stream.Abort()
		return "", ErrTooLarge
	}
	if err := stream.Close(); err != nil {
		return "", err
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected gridfs file id type")
	}
	return id.Hex(), nil
}

// Open returns the download stream and stored filename. Reads are public;
// the caller owns closing the stream.
func (s *Service) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrNotFound
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetReadDeadline(deadline); err != nil {
			return nil, "", err
		}
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return stream, stream.GetFile().Name, nil
}

// Delete removes a stored file; used when an avatar is replaced.
func (s *Service) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	if err := s.bucket.Delete(objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
