package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ErrStorageUnavailable 对象存储未配置
var ErrStorageUnavailable = errors.New("对象存储未配置")

// PhotoService 物品照片存储（MinIO）
// minioClient为nil时照片功能降级不可用，其余功能不受影响
type PhotoService struct {
	minioClient *minio.Client
	bucket      string
}

func NewPhotoService(minioClient *minio.Client, bucket string) *PhotoService {
	return &PhotoService{minioClient: minioClient, bucket: bucket}
}

// UploadItemPhoto 上传物品照片，返回对象名
func (s *PhotoService) UploadItemPhoto(ctx context.Context, item *entity.Item, fileName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.minioClient == nil {
		return "", ErrStorageUnavailable
	}

	ext := filepath.Ext(fileName)
	objectName := fmt.Sprintf("items/%s/%s%s", item.Code, uuid.New().String()[:16], ext)

	_, err := s.minioClient.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return objectName, nil
}

// PresignPhotoURL 生成照片的临时访问URL
func (s *PhotoService) PresignPhotoURL(ctx context.Context, objectName string) (string, error) {
	if s.minioClient == nil {
		return "", ErrStorageUnavailable
	}
	u, err := s.minioClient.PresignedGetObject(ctx, s.bucket, objectName, time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign photo url: %w", err)
	}
	return u.String(), nil
}
