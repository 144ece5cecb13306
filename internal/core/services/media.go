// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic for interacting with data
// sources. This file, `media.go`, defines the MediaService, the single place
// both tiers touch Google Cloud Storage: streaming uploads in, downloading
// sources for the worker, deleting raw uploads, and generating secure,
// time-limited URLs so browsers can fetch private objects directly from GCS.
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
)

// MediaService encapsulates the clients and configuration needed for object
// storage operations. It abstracts bucket and key layout away from the HTTP
// handlers and worker commands.
type MediaService struct {
	StorageClient *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient     *credentials.IamCredentialsClient // Client for interacting with IAM, used for signing URLs.
	SignerEmail   string                            // The service account email used to sign URLs.
}

// Upload streams the reader into the given bucket and object name and returns
// the resulting gs:// URI. The write is chunked by the client library, so
// arbitrarily large game files pass through without buffering in memory.
//
// Inputs:
//   - ctx: The context for the request.
//   - bucket: The destination bucket name.
//   - name: The destination object name.
//   - contentType: The MIME type recorded on the object.
//   - r: The source of the object bytes.
//
// Outputs:
//   - string: The gs:// URI of the written object.
//   - error: An error if the copy or close fails.
func (s *MediaService) Upload(ctx context.Context, bucket string, name string, contentType string, r io.Reader) (string, error) {
	w := s.StorageClient.Bucket(bucket).Object(name).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing gs://%s/%s: %w", bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing gs://%s/%s: %w", bucket, name, err)
	}
	return cloud.FormatGCSURI(bucket, name), nil
}

// UploadFile uploads a local file to the given bucket and object name.
func (s *MediaService) UploadFile(ctx context.Context, bucket string, name string, contentType string, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()
	return s.Upload(ctx, bucket, name, contentType, f)
}

// DownloadToFile copies the object at the gs:// URI into a new temporary file
// and returns its path. The caller owns the file and must arrange cleanup,
// typically by registering it with the chain context.
func (s *MediaService) DownloadToFile(ctx context.Context, gcsURI string, pattern string) (string, error) {
	bucket, name, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}
	r, err := s.StorageClient.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", gcsURI, err)
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading %s: %w", gcsURI, err)
	}
	// Close before handing the path to a subprocess; ffmpeg on some
	// platforms cannot open a file another process holds open for writing.
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// Exists reports whether the object at the gs:// URI is present.
func (s *MediaService) Exists(ctx context.Context, gcsURI string) (bool, error) {
	bucket, name, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return false, err
	}
	_, err = s.StorageClient.Bucket(bucket).Object(name).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the object at the gs:// URI.
func (s *MediaService) Delete(ctx context.Context, gcsURI string) error {
	bucket, name, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return err
	}
	if err := s.StorageClient.Bucket(bucket).Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("deleting %s: %w", gcsURI, err)
	}
	return nil
}

// signerResourceName formats the IAM resource name of the signing service
// account. The wildcard project segment lets IAM resolve the project from
// the account itself.
//
// Inputs:
//   - email: The service account email.
//
// Outputs:
//   - string: The resource name accepted by the IAM credentials API.
func signerResourceName(email string) string {
	return "projects/-/serviceAccounts/" + email
}

// GenerateSignedURL creates a time-limited, secure URL to access a private
// GCS object. This allows clients (like a web browser) to stream video
// directly from GCS without needing their own credentials. The signature
// bytes come from the IAM credentials SignBlob API on behalf of the service
// account in `s.SignerEmail`, so no private key file ships with the binary.
//
// Inputs:
//   - ctx: The context for the request.
//   - gcsURI: The gs:// URI of the object.
//   - method: The HTTP method the URL is valid for ("GET" or "PUT").
//   - expires: The duration for which the URL will be valid.
//
// Outputs:
//   - string: The generated signed URL.
//   - error: An error if parsing the URI or signing the URL fails.
func (s *MediaService) GenerateSignedURL(ctx context.Context, gcsURI string, method string, expires time.Duration) (string, error) {
	bucketName, objectName, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         method,
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
	}
	if s.IAMClient != nil {
		opts.SignBytes = func(b []byte) ([]byte, error) {
			resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    signerResourceName(s.SignerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("SignBlob as %s: %w", s.SignerEmail, err)
			}
			return resp.SignedBlob, nil
		}
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}
