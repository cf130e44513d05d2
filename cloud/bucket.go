/*
Copyright © 2021 the PRIMAP authors.
This file is part of PRIMAP.

PRIMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PRIMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PRIMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cloud reads and writes emissions tables in blob storage.
// Blob locations are URLs of the form 'provider://bucket/key', where
// provider is "file" for the local filesystem, "gs" for Google Cloud
// Storage, or "s3" for AWS S3.
package cloud

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// IsBlob returns whether the given path represents a blob
// (i.e., if it starts with 'gs://', 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// Location is the bucket and key of a blob.
type Location struct {
	// Provider is "file", "gs" or "s3".
	Provider string

	// Bucket is the bucket name, or the directory for the "file"
	// provider.
	Bucket string

	Key string
}

// ParseLocation splits a blob URL into its bucket and key. For the
// "file" provider the bucket is the directory holding the file, e.g.
// "file:///tmp/out/table.csv" has bucket "/tmp/out" and key "table.csv",
// and "file://out/table.csv" has bucket "out".
func ParseLocation(path string) (Location, error) {
	u, err := url.Parse(path)
	if err != nil {
		return Location{}, fmt.Errorf("cloud: parsing blob location: %v", err)
	}
	switch u.Scheme {
	case "file":
		p := filepath.FromSlash(u.Host + u.Path)
		if filepath.Base(p) == "." || strings.HasSuffix(u.Path, "/") {
			return Location{}, fmt.Errorf("cloud: blob location %s has no file name", path)
		}
		return Location{Provider: u.Scheme, Bucket: filepath.Dir(p), Key: filepath.Base(p)}, nil
	case "gs", "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("cloud: blob location %s needs a bucket and a key", path)
		}
		return Location{Provider: u.Scheme, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("cloud: invalid provider %q in %s", u.Scheme, path)
	}
}

func (l Location) String() string {
	if l.Provider == "file" {
		return "file://" + filepath.ToSlash(filepath.Join(l.Bucket, l.Key))
	}
	return fmt.Sprintf("%s://%s/%s", l.Provider, l.Bucket, l.Key)
}

// OpenBucket returns the blob storage bucket of the given location.
func OpenBucket(ctx context.Context, l Location) (*blob.Bucket, error) {
	switch l.Provider {
	case "file":
		return fileblob.NewBucket(l.Bucket)
	case "gs":
		return gsBucket(ctx, l.Bucket)
	case "s3":
		return s3Bucket(ctx, l.Bucket)
	default:
		return nil, fmt.Errorf("cloud: invalid provider %q", l.Provider)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, fmt.Errorf("cloud: creating AWS session: %v", err)
	}
	return s3blob.OpenBucket(ctx, s, name)
}
