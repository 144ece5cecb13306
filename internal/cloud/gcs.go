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

// Package cloud contains data structures and utilities for interacting with
// Google Cloud services. This file holds the gs:// URI helpers and the
// object-key layout shared by the API and worker tiers. Every artifact
// location in the system is derived from a job id through these builders so
// the two tiers never disagree about where a file lives.
//
// Structs:
//   - GCSObject: A simplified internal model for GCS objects used in processing workflows.
//
// Functions:
//   - ParseGCSURI, FormatGCSURI: Conversions between gs:// URIs and (bucket, name) pairs.
//   - UploadObjectName, HighlightObjectName, AnalysisObjectName, FinalRenderObjectName:
//     The canonical object-key builders.
package cloud

import (
	"fmt"
	"strings"
)

const gcsURIScheme = "gs://"

// GCSObject is a simplified, internal representation of a Google Cloud
// Storage (GCS) object, a lightweight struct that is easy to pass between
// commands in a processing workflow.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "video/mp4").
}

// URI renders the object back into gs:// form.
func (o *GCSObject) URI() string {
	return FormatGCSURI(o.Bucket, o.Name)
}

// ParseGCSURI splits a gs://bucket/name URI into its bucket and object name.
//
// Inputs:
//   - uri: The gs:// URI to parse.
//
// Outputs:
//   - bucket: The bucket component.
//   - name: The object name, which may itself contain slashes.
//   - err: An error when the URI is not a well-formed gs:// reference.
func ParseGCSURI(uri string) (bucket string, name string, err error) {
	if !strings.HasPrefix(uri, gcsURIScheme) {
		return "", "", fmt.Errorf("invalid gcs uri %q: missing gs:// scheme", uri)
	}
	rest := strings.TrimPrefix(uri, gcsURIScheme)
	bucket, name, found := strings.Cut(rest, "/")
	if !found || bucket == "" || name == "" {
		return "", "", fmt.Errorf("invalid gcs uri %q: want gs://bucket/object", uri)
	}
	return bucket, name, nil
}

// FormatGCSURI renders a (bucket, name) pair as a gs:// URI.
func FormatGCSURI(bucket string, name string) string {
	return gcsURIScheme + bucket + "/" + name
}

// UploadObjectName is the raw-bucket key for a source upload.
func UploadObjectName(jobId string, fileName string) string {
	return fmt.Sprintf("uploads/%s/%s", jobId, fileName)
}

// HighlightObjectName is the output-bucket key for the rendered highlight.
func HighlightObjectName(jobId string) string {
	return fmt.Sprintf("%s/highlight.mp4", jobId)
}

// AnalysisObjectName is the output-bucket key for the analysis artifact.
func AnalysisObjectName(jobId string) string {
	return fmt.Sprintf("%s/analysis.json", jobId)
}

// FinalRenderObjectName is the output-bucket key for a user-edited render.
func FinalRenderObjectName(jobId string) string {
	return fmt.Sprintf("%s/final_render.mp4", jobId)
}
