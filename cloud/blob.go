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

package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/sirupsen/logrus"
)

// maxRetries is the number of times a failed blob transfer is retried.
const maxRetries = 5

// retry runs f until it succeeds or has failed maxRetries times,
// logging each failure. Errors wrapped with backoff.Permanent are
// returned at once.
func retry(log logrus.FieldLogger, what string, f func() error) error {
	return backoff.RetryNotify(f,
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries),
		func(err error, d time.Duration) {
			log.WithError(err).WithField("wait", d).Warnf("cloud: %s failed; retrying", what)
		},
	)
}

// ReadFile returns the contents of the file at path, which may be a
// local file, an http(s) URL, or a blob location.
func ReadFile(ctx context.Context, path string, log logrus.FieldLogger) ([]byte, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		var b []byte
		err := retry(log, "downloading "+path, func() error {
			var err error
			b, err = readHTTP(ctx, path)
			return err
		})
		return b, err
	case IsBlob(path):
		l, err := ParseLocation(path)
		if err != nil {
			return nil, err
		}
		bucket, err := OpenBucket(ctx, l)
		if err != nil {
			return nil, err
		}
		var b []byte
		err = retry(log, "reading "+path, func() error {
			var err error
			b, err = readBlob(ctx, bucket, l.Key)
			return err
		})
		return b, err
	default:
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cloud: %v", err)
		}
		return b, nil
	}
}

// Open returns a reader for the file at path. See ReadFile for
// the accepted paths.
func Open(ctx context.Context, path string, log logrus.FieldLogger) (io.Reader, error) {
	b, err := ReadFile(ctx, path, log)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func readHTTP(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("cloud: %v", err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("cloud: downloading %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("cloud: downloading %s: %s", path, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return ioutil.ReadAll(resp.Body)
}

// readBlob reads the given blob from the given bucket.
func readBlob(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error) {
	var b bytes.Buffer
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		if blob.IsNotExist(err) {
			return nil, backoff.Permanent(fmt.Errorf("cloud: blob key %s does not exist: %v", key, err))
		}
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	defer r.Close()
	if _, err = io.Copy(&b, r); err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	return b.Bytes(), nil
}

// writeBlob writes the given data to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, data []byte) error {
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

// WriteFile writes data to path, which may be a local file or a blob
// location.
func WriteFile(ctx context.Context, path string, data []byte, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if !IsBlob(path) {
		if err := ioutil.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("cloud: %v", err)
		}
		return nil
	}
	l, err := ParseLocation(path)
	if err != nil {
		return err
	}
	if l.Provider == "file" {
		if err := os.MkdirAll(l.Bucket, os.ModePerm); err != nil {
			return fmt.Errorf("cloud: %v", err)
		}
	}
	bucket, err := OpenBucket(ctx, l)
	if err != nil {
		return err
	}
	err = retry(log, "writing "+path, func() error {
		return writeBlob(ctx, bucket, l.Key, data)
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"location": l.String(),
		"bytes":    len(data),
	}).Debug("cloud: wrote blob")
	return nil
}

// Writer buffers data and writes it to a local file or blob location
// when it is closed.
type Writer struct {
	bytes.Buffer
	ctx  context.Context
	path string
	log  logrus.FieldLogger
}

// Create returns a writer for path. Nothing is written until the
// writer is closed.
func Create(ctx context.Context, path string, log logrus.FieldLogger) *Writer {
	return &Writer{ctx: ctx, path: path, log: log}
}

// Close writes the buffered data.
func (w *Writer) Close() error {
	return WriteFile(w.ctx, w.path, w.Bytes(), w.log)
}
