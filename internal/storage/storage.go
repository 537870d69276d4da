// Package storage persists generated raster files either on local disk or in
// an S3-compatible bucket (DigitalOcean Spaces).
package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

const rasterPrefix = "rasters"

// Storage persists raster files. Save returns the public URL of the stored
// file; URL rebuilds it for a name already stored. List and Delete exist for
// the garbage collector.
type Storage interface {
	Save(name string, data []byte, contentType string) (string, error)
	URL(name string) string
	Delete(name string) error
	List() ([]string, error)
}

type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage stores rasters under dir, served at baseURL/rasters.
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (ls *LocalStorage) Save(name string, data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(ls.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create raster directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ls.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write raster: %w", err)
	}
	return ls.URL(name), nil
}

func (ls *LocalStorage) URL(name string) string {
	return fmt.Sprintf("%s/%s/%s", ls.baseURL, rasterPrefix, name)
}

func (ls *LocalStorage) Delete(name string) error {
	err := os.Remove(filepath.Join(ls.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (ls *LocalStorage) List() ([]string, error) {
	entries, err := os.ReadDir(ls.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
	cdnURL string
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: strings.TrimSuffix(cdnURL, "/"),
	}, nil
}

func (ss *SpacesStorage) key(name string) string {
	return rasterPrefix + "/" + name
}

func (ss *SpacesStorage) Save(name string, data []byte, contentType string) (string, error) {
	_, err := ss.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(ss.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("raster", name).Msg("Failed to upload raster to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}
	return ss.URL(name), nil
}

func (ss *SpacesStorage) URL(name string) string {
	return fmt.Sprintf("%s/%s", ss.cdnURL, ss.key(name))
}

func (ss *SpacesStorage) Delete(name string) error {
	_, err := ss.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(ss.key(name)),
	})
	if err != nil {
		log.Error().Err(err).Str("raster", name).Msg("Failed to delete raster from Spaces")
	}
	return err
}

func (ss *SpacesStorage) List() ([]string, error) {
	var names []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(ss.bucket),
		Prefix: aws.String(rasterPrefix + "/"),
	}
	err := ss.client.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			names = append(names, strings.TrimPrefix(aws.StringValue(obj.Key), rasterPrefix+"/"))
		}
		return true
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list rasters in Spaces")
		return nil, err
	}
	return names, nil
}
